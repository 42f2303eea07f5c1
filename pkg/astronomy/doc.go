// Package astronomy computes what is in the sky above the station: sun and
// moon position and phase, and which bright catalog stars are up.
//
// Results are cached per rounded location for ten minutes through a
// fetchcache.Cache and recorded with each image.
package astronomy
