// Copyright 2025 Poiesic Systems
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


// Package vault provides the at-rest encryption used for private post content.
//
// # Key Material
//
// A 32-byte key is derived once with PBKDF2-HMAC-SHA256 from a passphrase
// supplied by configuration and a salt, then persisted to a key file
// (base64url, mode 0600). Later runs read the key file and never need the
// passphrase again:
//
//	key, err := vault.LoadOrCreateKey(path, passphrase, salt)
//	c, err := vault.NewCipher(key)
//
// # Cipher
//
// Content is sealed with AES-256-GCM. The random nonce is prepended to the
// sealed bytes and the result is hex encoded so it can live in a JSON string.
// A ciphertext that fails authentication returns ErrDecryptionFailed; callers
// must surface it rather than treat the record as missing.
//
// # Fingerprint
//
// Fingerprint returns a short BLAKE2b digest of a key so logs can identify
// which key is in use without revealing it.
package vault
