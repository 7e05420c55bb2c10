/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package leaptab parses the leap-second table embedded in a "right/"
// timezone-database file (the POSIX TZif format with leap-second records)
// and answers whether a given UTC day inserts or deletes a leap second.
//
// This is the vendored-table rewrite spec.md's design notes call for in
// place of mutating the process TZ environment variable and calling the
// platform's mktime/localtime to probe "23:59:60" normalization.
package leaptab

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"time"
)

var (
	errBadData    = errors.New("leaptab: malformed time zone information")
	errBadVersion = errors.New("leaptab: version in file is not supported")
)

// Second is one leap-second record as stored in the TZif table.
type Second struct {
	Tleap uint64
	Nleap int32
}

// Time returns when the leap-second event occurs.
func (l Second) Time() time.Time {
	return time.Unix(int64(l.Tleap-uint64(l.Nleap)+1), 0)
}

// Parse reads the leap-second table out of the "right/"-variant tzdata file
// at path (conventionally "/usr/share/zoneinfo/right/<name>").
func Parse(path string) ([]Second, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(f)
}

func parse(r io.Reader) ([]Second, error) {
	var ret []Second
	for v := byte(0); v < 2; v++ {
		magic := make([]byte, 4)
		if _, err := io.ReadFull(r, magic); err != nil || string(magic) != "TZif" {
			return nil, errBadData
		}

		pad := make([]byte, 16)
		if _, err := io.ReadFull(r, pad); err != nil {
			return nil, errBadData
		}
		version := pad[0]
		if version != 0 && version != '2' && version != '3' {
			return nil, errBadVersion
		}
		if v > version {
			return nil, errBadData
		}

		const (
			nUTCLocal = iota
			nStdWall
			nLeap
			nTime
			nZone
			nChar
		)
		var n [6]int
		for i := range n {
			var nn uint32
			if err := binary.Read(r, binary.BigEndian, &nn); err != nil {
				return nil, err
			}
			n[i] = int(nn)
		}

		var skip int64
		if v == 0 {
			skip = int64(n[nTime])*5 + int64(n[nZone])*6 + int64(n[nChar])
		} else {
			skip = int64(n[nTime])*9 + int64(n[nZone])*6 + int64(n[nChar])
		}
		if v == 0 && version > 0 {
			skip += int64(n[nLeap])*8 + int64(n[nUTCLocal]) + int64(n[nStdWall])
		}
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return nil, errBadData
		}

		if v == 0 && version > 0 {
			continue
		}

		for i := 0; i < n[nLeap]; i++ {
			var l Second
			if version == 0 {
				var raw [2]uint32
				if err := binary.Read(r, binary.BigEndian, &raw); err != nil {
					return nil, err
				}
				l.Tleap = uint64(raw[0])
				l.Nleap = int32(raw[1])
			} else {
				if err := binary.Read(r, binary.BigEndian, &l); err != nil {
					return nil, err
				}
			}
			ret = append(ret, l)
		}
		_, _ = io.CopyN(io.Discard, r, int64(n[nUTCLocal]+n[nStdWall]))
		break
	}
	return ret, nil
}

// IsLeapDay reports whether day (interpreted at UTC midnight) inserts or
// deletes a leap second according to the table at path, and which.
// insert==delete==false means an ordinary day.
func IsLeapDay(path string, day time.Time) (insert, delete bool, err error) {
	seconds, err := Parse(path)
	if err != nil {
		return false, false, err
	}
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)
	var prevNleap int32
	for i, s := range seconds {
		t := s.Time()
		if t.Before(dayStart) || !t.Before(dayEnd) {
			if !t.Before(dayEnd) {
				break
			}
			prevNleap = s.Nleap
			continue
		}
		if i == 0 {
			// first-ever table entry: by definition an insertion
			return true, false, nil
		}
		if s.Nleap > prevNleap {
			return true, false, nil
		}
		return false, true, nil
	}
	return false, false, nil
}
