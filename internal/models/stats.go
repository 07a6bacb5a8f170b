package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rileyhilliard/esdbtop/internal/errors"
)

const drivePrefix = "sys-drive-"

// Stats is the typed subset of the stats blob the monitoring view plots.
type Stats struct {
	CPU          float64
	FreeMem      int64
	BytesWritten int64
	LoadAvg1m    float64
	LoadAvg5m    float64
	LoadAvg15m   float64
	Drives       []Drive
}

// Drive is the usage of one data directory.
type Drive struct {
	Path           string
	TotalBytes     int64
	AvailableBytes int64
	UsedBytes      int64
	Usage          string
}

// ParseStats extracts Stats from a flattened stats blob. Missing keys are
// zero; present keys that do not parse are Malformed.
func ParseStats(raw map[string]string) (Stats, error) {
	var s Stats
	var err error

	floats := []struct {
		key string
		dst *float64
	}{
		{"proc-cpu", &s.CPU},
		{"sys-loadavg-1m", &s.LoadAvg1m},
		{"sys-loadavg-5m", &s.LoadAvg5m},
		{"sys-loadavg-15m", &s.LoadAvg15m},
	}
	for _, f := range floats {
		if *f.dst, err = parseFloat(raw, f.key); err != nil {
			return Stats{}, err
		}
	}

	if s.FreeMem, err = parseInt(raw, "sys-freeMem"); err != nil {
		return Stats{}, err
	}
	if s.BytesWritten, err = parseInt(raw, "proc-diskIo-writtenBytes"); err != nil {
		return Stats{}, err
	}

	drives := make(map[string]*Drive)
	for key, value := range raw {
		if !strings.HasPrefix(key, drivePrefix) {
			continue
		}
		rest := strings.TrimPrefix(key, drivePrefix)
		idx := strings.LastIndex(rest, "-")
		if idx <= 0 {
			continue
		}
		path, field := rest[:idx], rest[idx+1:]

		d, ok := drives[path]
		if !ok {
			d = &Drive{Path: path}
			drives[path] = d
		}

		switch field {
		case "totalBytes":
			d.TotalBytes, err = parseInt(raw, key)
		case "availableBytes":
			d.AvailableBytes, err = parseInt(raw, key)
		case "usedBytes":
			d.UsedBytes, err = parseInt(raw, key)
		case "usage":
			d.Usage = value
		}
		if err != nil {
			return Stats{}, err
		}
	}

	for _, d := range drives {
		s.Drives = append(s.Drives, *d)
	}
	sort.Slice(s.Drives, func(i, j int) bool { return s.Drives[i].Path < s.Drives[j].Path })

	return s, nil
}

func parseFloat(raw map[string]string, key string) (float64, error) {
	v, ok := raw[key]
	if !ok || v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Malformed(fmt.Errorf("%s=%q: %w", key, v, err), "stats")
	}
	return f, nil
}

// parseInt accepts integral floats too; some versions report byte counts as 1.2E+10.
func parseInt(raw map[string]string, key string) (int64, error) {
	v, ok := raw[key]
	if !ok || v == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Malformed(fmt.Errorf("%s=%q: %w", key, v, err), "stats")
	}
	return int64(f), nil
}
