// Package secrets resolves ${secret:name} references in configuration
// values.
//
// A Manager asks its providers in order and caches what it finds for a
// short time. Two providers ship with the package:
//
//   - EnvProvider reads PREFIX + NAME, where the name is upper-cased and
//     hyphens become underscores ("owm-api-key" -> ALLSKY_SECRET_OWM_API_KEY).
//   - FileProvider reads one file per secret from a directory, the layout
//     used by Docker and Kubernetes secret mounts. Files must be mode 0600
//     or 0400.
//
// Example:
//
//	m := secrets.NewManager([]secrets.Provider{
//		secrets.NewEnvProvider("ALLSKY_SECRET_"),
//		secrets.NewFileProvider("/run/secrets"),
//	}, time.Minute)
//	key, err := m.Resolve(ctx, "${secret:owm-api-key}")
package secrets
