// Package signer loads an RSA private key and produces detached
// PKCS#1-v1.5-SHA512 signatures for manifests and installers.
package signer

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/obsproject/obs-updater-builder/internal/errors"
)

// PrivateKeyEnvVar is the environment variable consulted when no key file
// path is configured.
const PrivateKeyEnvVar = "UPDATER_PRIVATE_KEY"

// Signer loads an RSA private key lazily (on first Sign/CheckKey call) and
// caches it for the lifetime of the process.
type Signer struct {
	keyFile string

	mu  sync.Mutex
	key *rsa.PrivateKey
}

// New creates a Signer that will load its key from keyFile, or from the
// UPDATER_PRIVATE_KEY environment variable if keyFile is empty.
func New(keyFile string) *Signer {
	return &Signer{keyFile: keyFile}
}

func (s *Signer) loadKey() (*rsa.PrivateKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		return s.key, nil
	}

	var pemBytes []byte
	if s.keyFile != "" {
		data, err := os.ReadFile(s.keyFile)
		if err != nil {
			return nil, errors.NewSignError(s.keyFile, err)
		}
		pemBytes = data
	} else {
		b64 := os.Getenv(PrivateKeyEnvVar)
		if b64 == "" {
			return nil, errors.NewSignError("private key", errors.New(
				"no key file configured and "+PrivateKeyEnvVar+" is not set",
				errors.ExitSignError,
			))
		}
		decoded, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, errors.NewSignError(PrivateKeyEnvVar, err)
		}
		pemBytes = decoded
	}

	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.NewSignError("private key", errors.New("not a PEM file", errors.ExitSignError))
	}

	var key *rsa.PrivateKey
	var err error
	if strings.Contains(string(pemBytes), "RSA PRIVATE KEY") {
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	} else {
		var parsed any
		parsed, err = x509.ParsePKCS8PrivateKey(block.Bytes)
		if err == nil {
			rsaKey, ok := parsed.(*rsa.PrivateKey)
			if !ok {
				err = errors.New("PKCS#8 key is not an RSA key", errors.ExitSignError)
			} else {
				key = rsaKey
			}
		}
	}
	if err != nil {
		return nil, errors.NewSignError("private key", err)
	}

	s.key = key
	return key, nil
}

// CheckKey loads and discards the key, used at config-validation time to
// fail fast before a long build run.
func (s *Signer) CheckKey() error {
	_, err := s.loadKey()
	return err
}

// SignFile reads path, computes its SHA-512 digest, signs it with
// PKCS#1-v1.5(SHA-512), and writes the raw signature bytes to
// "<path>.<ext>.sig" (the existing extension gains a .sig suffix).
func (s *Signer) SignFile(path string) error {
	key, err := s.loadKey()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewSignError(path, err)
	}

	digest := sha512.Sum512(data)
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA512, digest[:])
	if err != nil {
		return errors.NewSignError(path, err)
	}

	sigPath := path + ".sig"
	if ext := filepath.Ext(path); ext != "" {
		sigPath = strings.TrimSuffix(path, ext) + ext + ".sig"
	}

	if err := os.WriteFile(sigPath, signature, 0644); err != nil {
		return errors.NewSignError(sigPath, err)
	}

	return nil
}
