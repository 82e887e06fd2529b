package geoip

import (
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

type GeoIP interface {
	Close() error
	Lookup(ip net.IP) GeoInfo
}

type GeoInfo struct {
	ASN       int
	ASOrg     string
	CC        string // ISO-2
	Continent string // EU, AS, NA, OC, AF, SA, AN
}

// Known reports whether anything was resolved.
func (g GeoInfo) Known() bool {
	return g.CC != "" || g.ASN != 0
}

type Geo struct {
	countryDB *geoip2.Reader // GeoLite2-Country.mmdb
	asnDB     *geoip2.Reader // GeoLite2-ASN.mmdb, optional
}

// New opens the databases. An empty countryPath disables lookups altogether.
func New(countryPath, asnPath string) (GeoIP, error) {
	if countryPath == "" {
		return disabled{}, nil
	}

	cdb, err := geoip2.Open(countryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open country db: %w", err)
	}

	var adb *geoip2.Reader
	if asnPath != "" {
		if adb, err = geoip2.Open(asnPath); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to open asn db: %w", err), cdb.Close())
		}
	}

	return &Geo{
		countryDB: cdb,
		asnDB:     adb,
	}, nil
}

func (g *Geo) Close() error {
	var errs []error

	if g.asnDB != nil {
		errs = append(errs, g.asnDB.Close())
	}

	if g.countryDB != nil {
		errs = append(errs, g.countryDB.Close())
	}

	return errors.Join(errs...)
}

func (g *Geo) Lookup(ip net.IP) GeoInfo {
	var out GeoInfo
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() {
		return out
	}

	if g.asnDB != nil {
		if rec, err := g.asnDB.ASN(ip); err == nil && rec != nil {
			out.ASN = int(rec.AutonomousSystemNumber)
			out.ASOrg = rec.AutonomousSystemOrganization
		}
	}

	if rec, err := g.countryDB.Country(ip); err == nil && rec != nil {
		out.CC = rec.Country.IsoCode
		out.Continent = rec.Continent.Code
	}

	return out
}

type disabled struct{}

func (disabled) Close() error { return nil }

func (disabled) Lookup(net.IP) GeoInfo { return GeoInfo{} }
