package util

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oschwald/geoip2-golang"
	cache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

const unknownLocation = "Unknown"

// locationWait bounds the total time spent resolving location data for one
// audit message. Lookups that do not settle in time degrade to the sentinel.
const locationWait = 5 * time.Second

// ApproxLocation is the IP-derived location. It is always populated, with
// "Unknown" sentinels when the lookup fails; a failed lookup must never fail
// the surrounding audit flow.
type ApproxLocation struct {
	IP          string `json:"ip"`
	City        string `json:"city"`
	CountryName string `json:"country_name"`
}

// Coordinates are client-reported precise coordinates, when the visitor's
// device shared them with the triggering request.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PreciseLocation is the device-reported position with a derived map link.
type PreciseLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	MapLink   string  `json:"map_link"`
}

// LocationResult carries both resolutions. Precise is nil when the device
// did not share coordinates; Approx is always present.
type LocationResult struct {
	Approx  ApproxLocation
	Precise *PreciseLocation
}

// LocationString renders the preferred human-readable location: precise
// coordinates when available, otherwise the IP-derived city/country pair.
func (r LocationResult) LocationString() string {
	if r.Precise != nil {
		return fmt.Sprintf("🎯 Exact: %.4f, %.4f", r.Precise.Latitude, r.Precise.Longitude)
	}
	return fmt.Sprintf("%s, %s", r.Approx.City, r.Approx.CountryName)
}

var (
	geoipDB        *geoip2.Reader
	geoipCache     *cache.Cache
	geoipCacheHits int64
	geoipCacheMiss int64

	ipLookupURL    = "https://ipapi.co/%s/json/"
	ipLookupClient = &http.Client{Timeout: locationWait}
)

// InitGeoIP opens a local GeoIP2/GeoLite2 .mmdb reader and an in-memory
// lookup cache. An empty dbPath still initializes the cache so the HTTP
// fallback benefits from it; a missing or invalid file is an error only when
// a path was actually given.
func InitGeoIP(dbPath string) error {
	geoipCache = cache.New(24*time.Hour, 1*time.Hour)
	if dbPath == "" {
		return nil
	}

	r, err := geoip2.Open(dbPath)
	if err != nil {
		return err
	}
	geoipDB = r
	return nil
}

// CloseGeoIP closes the GeoIP DB if opened.
func CloseGeoIP() {
	if geoipDB != nil {
		_ = geoipDB.Close()
		geoipDB = nil
	}
}

// SetIPLookupURL overrides the HTTP IP-geolocation endpoint template. The
// template receives the looked-up IP via fmt.Sprintf.
func SetIPLookupURL(template string) {
	if template != "" {
		ipLookupURL = template
	}
}

// SetIPLookupClientForTesting swaps the HTTP client used for IP lookups.
func SetIPLookupClientForTesting(c *http.Client) {
	ipLookupClient = c
}

func isPrivateIP(ip string) bool {
	return ip == "127.0.0.1" || ip == "::1" ||
		strings.HasPrefix(ip, "10.") ||
		strings.HasPrefix(ip, "192.168.") ||
		strings.HasPrefix(ip, "::")
}

func unknownApprox() ApproxLocation {
	return ApproxLocation{IP: unknownLocation, City: unknownLocation, CountryName: unknownLocation}
}

// LookupIP resolves an approximate location for the given IP, consulting the
// in-memory cache, then the local GeoIP database, then the HTTP lookup
// service. Every failure path returns the "Unknown" sentinel record.
func LookupIP(ctx context.Context, ip string) ApproxLocation {
	if ip == "" || isPrivateIP(ip) {
		return unknownApprox()
	}

	if geoipCache != nil {
		if v, ok := geoipCache.Get(ip); ok {
			atomic.AddInt64(&geoipCacheHits, 1)
			if loc, ok := v.(ApproxLocation); ok {
				return loc
			}
		}
		atomic.AddInt64(&geoipCacheMiss, 1)
	}

	loc, ok := lookupLocalDB(ip)
	if !ok {
		loc, ok = lookupHTTP(ctx, ip)
	}
	if !ok {
		return unknownApprox()
	}

	if loc.City == "" {
		loc.City = unknownLocation
	}
	if loc.CountryName == "" {
		loc.CountryName = unknownLocation
	}
	if geoipCache != nil {
		geoipCache.Set(ip, loc, cache.DefaultExpiration)
	}
	return loc
}

func lookupLocalDB(ip string) (ApproxLocation, bool) {
	if geoipDB == nil {
		return ApproxLocation{}, false
	}

	netip := net.ParseIP(ip)
	if netip == nil {
		return ApproxLocation{}, false
	}

	rec, err := geoipDB.City(netip)
	if err != nil {
		return ApproxLocation{}, false
	}

	loc := ApproxLocation{IP: ip}
	if rec.City.Names != nil {
		loc.City = rec.City.Names["en"]
	}
	if rec.Country.Names != nil {
		loc.CountryName = rec.Country.Names["en"]
	}
	if loc.CountryName == "" {
		loc.CountryName = rec.Country.IsoCode
	}
	return loc, true
}

func lookupHTTP(ctx context.Context, ip string) (ApproxLocation, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(ipLookupURL, ip), nil)
	if err != nil {
		return ApproxLocation{}, false
	}
	resp, err := ipLookupClient.Do(req)
	if err != nil {
		return ApproxLocation{}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ApproxLocation{}, false
	}

	var loc ApproxLocation
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		return ApproxLocation{}, false
	}
	if loc.IP == "" {
		loc.IP = ip
	}
	return loc, true
}

// ResolveLocation runs the approximate IP lookup and the precise
// (client-reported) resolution concurrently and joins both before returning.
// Total wait is bounded; neither branch can fail the call.
func ResolveLocation(ctx context.Context, ip string, coords *Coordinates) LocationResult {
	ctx, cancel := context.WithTimeout(ctx, locationWait)
	defer cancel()

	result := LocationResult{Approx: unknownApprox()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result.Approx = LookupIP(gctx, ip)
		return nil
	})
	g.Go(func() error {
		if coords == nil {
			return nil
		}
		result.Precise = &PreciseLocation{
			Latitude:  coords.Latitude,
			Longitude: coords.Longitude,
			MapLink:   fmt.Sprintf("https://www.google.com/maps?q=%f,%f", coords.Latitude, coords.Longitude),
		}
		return nil
	})
	_ = g.Wait()

	return result
}

// GetGeoIPCacheMetrics returns the cache hits and misses and current cache size.
func GetGeoIPCacheMetrics() (hits int64, misses int64, size int) {
	hits = atomic.LoadInt64(&geoipCacheHits)
	misses = atomic.LoadInt64(&geoipCacheMiss)
	if geoipCache != nil {
		return hits, misses, geoipCache.ItemCount()
	}
	return hits, misses, 0
}
