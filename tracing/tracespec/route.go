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

package tracespec

import (
	"errors"
	"fmt"
	"strings"
)

// Backend is a class of sink technology an event can be routed to.
type Backend int

const (
	// KatipBK is the structured logging backend; it delivers to scribes.
	KatipBK Backend = iota
	// EKGViewBK is the in-memory metrics view backend.
	EKGViewBK

	numBackends // keep this last
)

var backendNames = [numBackends]string{"KatipBK", "EKGViewBK"}

// ErrInvalidBackend is returned for unknown backend names.
var ErrInvalidBackend = errors.New("invalid backend")

func (b Backend) String() string {
	if b < 0 || b >= numBackends {
		return fmt.Sprintf("Backend(%d)", int(b))
	}
	return backendNames[b]
}

// ParseBackend converts a backend name such as "KatipBK".
func ParseBackend(text string) (Backend, error) {
	for i, name := range backendNames {
		if name == strings.TrimSpace(text) {
			return Backend(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidBackend, text)
}

// ScribeKind selects the concrete destination of a scribe.
type ScribeKind int

const (
	// FileSK writes to a rotating file.
	FileSK ScribeKind = iota
	// StdoutSK writes to the process standard output.
	StdoutSK

	numScribeKinds // keep this last
)

var scribeKindNames = [numScribeKinds]string{"FileSK", "StdoutSK"}

// ErrInvalidScribe is returned for malformed scribe identifiers, kinds or formats.
var ErrInvalidScribe = errors.New("invalid scribe")

func (k ScribeKind) String() string {
	if k < 0 || k >= numScribeKinds {
		return fmt.Sprintf("ScribeKind(%d)", int(k))
	}
	return scribeKindNames[k]
}

// ParseScribeKind converts "FileSK" or "StdoutSK".
func ParseScribeKind(text string) (ScribeKind, error) {
	for i, name := range scribeKindNames {
		if name == strings.TrimSpace(text) {
			return ScribeKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidScribe, text)
}

// ScribeFormat selects how an event is serialized before being written.
type ScribeFormat int

const (
	// ScText is a human readable line.
	ScText ScribeFormat = iota
	// ScJson is one JSON object per line.
	ScJson

	numScribeFormats // keep this last
)

var scribeFormatNames = [numScribeFormats]string{"ScText", "ScJson"}

func (f ScribeFormat) String() string {
	if f < 0 || f >= numScribeFormats {
		return fmt.Sprintf("ScribeFormat(%d)", int(f))
	}
	return scribeFormatNames[f]
}

// ParseScribeFormat converts "ScText" or "ScJson". An empty string means ScText.
func ParseScribeFormat(text string) (ScribeFormat, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ScText, nil
	}
	for i, name := range scribeFormatNames {
		if name == trimmed {
			return ScribeFormat(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown format %q", ErrInvalidScribe, text)
}

// ScribeSeparator joins the kind and the name of a scribe identifier.
const ScribeSeparator = "::"

// ScribeID names a configured scribe, written "Kind::name".
type ScribeID struct {
	Kind ScribeKind
	Name string
}

func (id ScribeID) String() string {
	return id.Kind.String() + ScribeSeparator + id.Name
}

// ParseScribeID parses "FileSK::logs/mainnet.log".
func ParseScribeID(text string) (ScribeID, error) {
	kind, name, found := strings.Cut(text, ScribeSeparator)
	if !found {
		return ScribeID{}, fmt.Errorf("%w: %q is not of the form Kind::name", ErrInvalidScribe, text)
	}
	return MakeScribeID(kind, name)
}

// MakeScribeID builds an identifier from its two halves, as found in defaultScribes pairs.
func MakeScribeID(kind, name string) (ScribeID, error) {
	k, err := ParseScribeKind(kind)
	if err != nil {
		return ScribeID{}, err
	}
	if strings.TrimSpace(name) == "" {
		return ScribeID{}, fmt.Errorf("%w: %s scribe has an empty name", ErrInvalidScribe, k)
	}
	return ScribeID{Kind: k, Name: name}, nil
}
