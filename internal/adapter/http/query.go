package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/childcare-availability/internal/domain"
	"github.com/couchcryptid/childcare-availability/internal/pipeline"
)

// parseQuery reads date, age, types, zoom, lat and lon. Absent parameters
// leave the corresponding filter unset; an empty types value disables every
// category.
func parseQuery(v url.Values) (pipeline.Query, error) {
	q := pipeline.Query{Date: strings.TrimSpace(v.Get("date"))}

	var err error
	if q.Age, err = optionalInt(v, "age"); err != nil {
		return q, err
	}
	if q.Zoom, err = optionalInt(v, "zoom"); err != nil {
		return q, err
	}
	if q.Origin, err = parseOrigin(v); err != nil {
		return q, err
	}

	if v.Has("types") {
		q.Categories = []domain.Category{}
		for _, name := range strings.Split(v.Get("types"), ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			c, err := domain.ParseCategory(name)
			if err != nil {
				return q, err
			}
			q.Categories = append(q.Categories, c)
		}
	}
	return q, nil
}

func parseOrigin(v url.Values) (*domain.LatLon, error) {
	lat, lon := v.Get("lat"), v.Get("lon")
	if lat == "" && lon == "" {
		return nil, nil
	}
	if lat == "" || lon == "" {
		return nil, fmt.Errorf("lat and lon must be given together")
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lat %q", lat)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lon %q", lon)
	}
	origin := domain.LatLon{Lat: la, Lon: lo}
	if !origin.Valid() {
		return nil, fmt.Errorf("origin %g,%g is out of range", la, lo)
	}
	return &origin, nil
}

func optionalInt(v url.Values, key string) (*int, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, s)
	}
	return &n, nil
}
