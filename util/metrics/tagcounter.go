// Copyright (C) 2019-2024 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package metrics

import (
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/algorand/go-deadlock"
)

// NewTagCounter makes a set of metrics under rootName for tagged counting,
// registered with the default registry.
// "{TAG}" in rootName is replaced by the tag, otherwise "_{TAG}" is appended.
func NewTagCounter(rootName, desc string) *TagCounter {
	tc := NewTagCounterUnregistered(rootName, desc)
	DefaultRegistry().Register(tc)
	return tc
}

// NewTagCounterUnregistered makes a TagCounter that isn't part of any registry yet.
func NewTagCounterUnregistered(rootName, desc string) *TagCounter {
	return &TagCounter{Name: rootName, Description: desc}
}

// TagCounter holds a set of counters
type TagCounter struct {
	Name        string
	Description string

	// a read only race-free reference to tags
	tagptr atomic.Pointer[map[string]*uint64]

	tags map[string]*uint64

	storage    [][]uint64
	storagePos int

	tagLock deadlock.Mutex
}

// Add t[tag] += val, fast and multithread safe
func (tc *TagCounter) Add(tag string, val uint64) {
	for {
		var tags map[string]*uint64
		if tagptr := tc.tagptr.Load(); tagptr != nil {
			tags = *tagptr
		}

		count, ok := tags[tag]
		if ok {
			atomic.AddUint64(count, val)
			return
		}
		tc.tagLock.Lock()
		if _, ok = tc.tags[tag]; !ok {
			// Still need to add a new tag.
			// Make a new map so there's never any race.
			newtags := make(map[string]*uint64, len(tc.tags)+1)
			for k, v := range tc.tags {
				newtags[k] = v
			}
			var st []uint64
			if len(tc.storage) > 0 {
				st = tc.storage[len(tc.storage)-1]
			}
			if tc.storagePos > (len(st) - 1) {
				st = make([]uint64, 16)
				tc.storagePos = 0
				tc.storage = append(tc.storage, st)
			}
			newtags[tag] = &(st[tc.storagePos])
			tc.storagePos++
			tc.tags = newtags
			tc.tagptr.Store(&newtags)
		}
		tc.tagLock.Unlock()
	}
}

// GetValue returns the count of a tag, 0 if it was never added.
func (tc *TagCounter) GetValue(tag string) uint64 {
	tagp := tc.tagptr.Load()
	if tagp == nil {
		return 0
	}
	if count, ok := (*tagp)[tag]; ok {
		return atomic.LoadUint64(count)
	}
	return 0
}

func (tc *TagCounter) metricName(tag string) string {
	if strings.Contains(tc.Name, "{TAG}") {
		return sanitizePrometheusName(strings.ReplaceAll(tc.Name, "{TAG}", tag))
	}
	return sanitizePrometheusName(tc.Name + "_" + tag)
}

func (tc *TagCounter) sortedTags() []string {
	tagp := tc.tagptr.Load()
	if tagp == nil {
		return nil
	}
	tags := make([]string, 0, len(*tagp))
	for tag := range *tagp {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// WriteMetric is part of the Metric interface
func (tc *TagCounter) WriteMetric(buf *strings.Builder, parentLabels string) {
	tags := tc.sortedTags()
	if len(tags) == 0 {
		return
	}
	buf.WriteString("# ")
	buf.WriteString(tc.Name)
	buf.WriteString(" ")
	buf.WriteString(tc.Description)
	buf.WriteString("\n")
	for _, tag := range tags {
		writeSample(buf, tc.metricName(tag), parentLabels, "", strconv.FormatUint(tc.GetValue(tag), 10))
	}
}

// AddMetric is part of the Metric interface
// Copy the values in this TagCounter out into the map.
func (tc *TagCounter) AddMetric(values map[string]float64) {
	for _, tag := range tc.sortedTags() {
		values[tc.metricName(tag)] = float64(tc.GetValue(tag))
	}
}
