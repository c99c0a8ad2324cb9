// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package digest drives the subset of {SHA-1, SHA-256, MD5} selected for
// a run over a stream of byte chunks, feeding each chunk to every
// selected hash.Hash in turn.
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"

	"github.com/forensiq/ddup/internal/model"
)

// Engine accumulates the digests selected for a single file. An Engine is
// single-use: call Finalize once, then discard it and obtain a fresh one
// for the next file via New.
type Engine struct {
	sha1   hash.Hash
	sha256 hash.Hash
	md5    hash.Hash
}

// New returns a fresh Engine for the given selection. Algorithms not in
// the selection are left nil and never touched again for this instance.
func New(sel model.DigestSelection) *Engine {
	e := &Engine{}
	if sel.SHA1 {
		e.sha1 = sha1.New()
	}
	if sel.SHA256 {
		e.sha256 = sha256.New()
	}
	if sel.MD5 {
		e.md5 = md5.New()
	}
	return e
}

// Update feeds chunk to every selected algorithm. Zero-length chunks are a
// no-op. Update never retains chunk past the call.
func (e *Engine) Update(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	if e.sha1 != nil {
		e.sha1.Write(chunk)
	}
	if e.sha256 != nil {
		e.sha256.Write(chunk)
	}
	if e.md5 != nil {
		e.md5.Write(chunk)
	}
}

// Triple is the (sha1, sha256, md5) result of a finalized Engine. A nil
// field means that algorithm was not selected for this run.
type Triple struct {
	SHA1   *string
	SHA256 *string
	MD5    *string
}

// Finalize renders the accumulated state as lowercase hex digests.
func (e *Engine) Finalize() Triple {
	var t Triple
	if e.sha1 != nil {
		t.SHA1 = hexString(e.sha1)
	}
	if e.sha256 != nil {
		t.SHA256 = hexString(e.sha256)
	}
	if e.md5 != nil {
		t.MD5 = hexString(e.md5)
	}
	return t
}

func hexString(h hash.Hash) *string {
	s := hex.EncodeToString(h.Sum(nil))
	return &s
}
