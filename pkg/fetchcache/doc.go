// Package fetchcache provides a generic time-bounded cache for data that is
// expensive or slow to fetch, such as weather reports and celestial object
// positions.
//
// Entries expire a fixed duration after they were inserted; reading an entry
// never extends its lifetime. Concurrent callers asking for the same missing
// or expired key share a single fetch. When a fetch fails the previous value
// is returned if there is one.
//
//	weather := fetchcache.New[fetchcache.LocationKey, weather.Snapshot]("weather", 5*time.Minute, fetchcache.Options{})
//	snap, err := weather.GetOrFetch(ctx, fetchcache.NewLocationKey(lat, lon), fetchFn)
//	switch {
//	case errors.Is(err, fetchcache.ErrFetchFailed):        // this caller ran the failed fetch
//	case errors.Is(err, fetchcache.ErrDefaultUnavailable): // another caller's fetch failed
//	}
package fetchcache
