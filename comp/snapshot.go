// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comp

import (
	"bytes"
	"encoding/gob"
)

// gobEncode/gobDecode back every component's Encode/Decode pair (spec
// §9 [SUPPLEMENT], circuit.Snapshottable). gob rather than a gosl helper:
// none of the retrieved packages expose a public generic struct
// encoder, and gofem's own Encode/Decode (ele.Element) goes straight to
// its own binary layout rather than a shared library call -- the same
// shape this takes here.
func gobEncode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
