// Copyright 2026 The CurationGym Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"

	"github.com/waycodes/curationgym/internal/curationerr"
	"github.com/waycodes/curationgym/pkg/document"
)

// WriteShard serializes docs as line-delimited JSON to path via a
// temp-file-then-rename, per spec §6's output shard contract, and returns
// the ShardEntry describing the result. No partial shard file is ever
// observable at path.
func WriteShard(path string, docs []document.Document) (ShardEntry, error) {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return ShardEntry{}, curationerr.NewStorageError("cannot open shard temp file", tmpPath, "", err)
	}

	hasher := sha256.New()
	enc := json.NewEncoder(io.MultiWriter(f, hasher))
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			_ = f.Close()
			_ = os.Remove(tmpPath)
			return ShardEntry{}, curationerr.NewStorageError("cannot encode shard document", path, "", err)
		}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return ShardEntry{}, curationerr.NewStorageError("cannot close shard temp file", tmpPath, "", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return ShardEntry{}, curationerr.NewStorageError("cannot rename shard into place", path, "", err)
	}

	return ShardEntry{
		Path:     path,
		Checksum: hex.EncodeToString(hasher.Sum(nil)[:8]),
		DocCount: len(docs),
	}, nil
}
