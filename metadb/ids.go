// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package metadb

import (
	"crypto/rand"
	"math/big"
)

const (
	idAlphabet  = "abcdefghijklmnopqrstuvwxyz0123456789"
	idSuffixLen = 14
)

// idPrefixes maps each kind to a short prefix so ids are recognizable in
// logs and foreign keys. Unknown kinds fall back to genericIDPrefix.
var idPrefixes = map[Kind]string{
	KindProject:  "p",
	KindSource:   "src",
	KindModel:    "md",
	KindColumn:   "col",
	KindView:     "vw",
	KindFilter:   "fl",
	KindHook:     "hk",
	KindUser:     "us",
	KindKVStore:  "kv",
	KindAPIToken: "tkn",
}

const genericIDPrefix = "rec"

// GenerateID produces a collision-resistant id for the kind: a 1-4 letter
// kind prefix followed by a 14-character random lowercase-alphanumeric
// suffix. At expected per-base cardinality the collision probability is
// negligible.
func GenerateID(kind Kind) string {
	prefix, ok := idPrefixes[kind]
	if !ok {
		prefix = genericIDPrefix
	}

	buf := make([]byte, 0, len(prefix)+idSuffixLen)
	buf = append(buf, prefix...)
	max := big.NewInt(int64(len(idAlphabet)))
	for range idSuffixLen {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the platform entropy source is
			// broken; nothing sensible to do but stop.
			panic(err)
		}
		buf = append(buf, idAlphabet[n.Int64()])
	}
	return string(buf)
}
