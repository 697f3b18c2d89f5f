package signature

import (
	"crypto/hmac"
	"strings"
)

// Options configures an Engine.
type Options struct {
	// Secret is the shared key. It must not be empty.
	Secret string

	// Hashes is the ordered allow-list used when Verify is called without an
	// expected algorithm. The first entry is the default for SignBytes and
	// VerifyBytes. Defaults to [sha256].
	Hashes []AlgorithmID
}

// Engine signs and verifies payloads with a fixed secret and allow-list.
type Engine struct {
	key         []byte
	hashes      []AlgorithmID
	defaultHash string
}

// New creates an Engine. Entries of opts.Hashes are checked against the
// supported table when used, not here.
func New(opts Options) (*Engine, error) {
	if opts.Secret == "" {
		return nil, configError("'secret' must not be empty")
	}

	hashes := opts.Hashes
	if len(hashes) == 0 {
		hashes = []AlgorithmID{SHA256}
	}

	defaultHash := CanonicalSHA256
	if hashes[0] == SHA1 {
		defaultHash = CanonicalSHA1
	}

	return &Engine{
		key:         []byte(opts.Secret),
		hashes:      append([]AlgorithmID(nil), hashes...),
		defaultHash: defaultHash,
	}, nil
}

// DefaultHash returns the first entry of the allow-list.
func (e *Engine) DefaultHash() AlgorithmID {
	return e.hashes[0]
}

// AllowList returns a copy of the configured allow-list.
func (e *Engine) AllowList() []AlgorithmID {
	return append([]AlgorithmID(nil), e.hashes...)
}

// Sign returns the header value "<alg>=<hex>" for payload. An empty alg
// means sha256 regardless of the allow-list.
func (e *Engine) Sign(payload string, alg AlgorithmID) (string, error) {
	if alg == "" {
		alg = SHA256
	}

	canonical, ok := CanonicalName(alg)
	if !ok {
		return "", unsupportedAlgorithm("'alg'", string(alg))
	}

	sig, err := e.SignBytes([]byte(payload), canonical)
	if err != nil {
		return "", err
	}

	return string(alg) + "=" + BytesToHex(sig), nil
}

// SignBytes computes the raw MAC of payload. An empty canonical name uses
// the allow-list default.
func (e *Engine) SignBytes(payload []byte, canonical string) ([]byte, error) {
	if canonical == "" {
		canonical = e.defaultHash
	}

	newHash, ok := hashFor(canonical)
	if !ok {
		return nil, unsupportedAlgorithm("'algo'", canonical)
	}

	mac := hmac.New(newHash, e.key)
	mac.Write(payload)
	return mac.Sum(nil), nil
}

// Verify checks header against payload. When alg is set the header must
// use exactly that algorithm and the allow-list is not consulted. A header
// that is well formed but does not match returns false and a nil error.
func (e *Engine) Verify(header, payload string, alg AlgorithmID) (bool, error) {
	parts := strings.Split(header, "=")
	if len(parts) != 2 {
		return false, malformedHeader("'header' must be in the format 'algorithm=signature'")
	}
	headerAlg, sigHex := AlgorithmID(parts[0]), parts[1]

	if alg != "" && alg != headerAlg {
		return false, algorithmMismatch(string(alg), string(headerAlg))
	}

	canonical, ok := CanonicalName(headerAlg)
	if !ok {
		return false, unsupportedAlgorithm("header 'alg'", string(headerAlg))
	}

	if alg == "" && !e.allows(headerAlg) {
		return false, algorithmNotAllowed(e.hashes, string(headerAlg))
	}

	sig, err := HexToBytes(sigHex)
	if err != nil {
		return false, err
	}

	return e.VerifyBytes(sig, []byte(payload), canonical)
}

// VerifyBytes recomputes the MAC of payload and compares it with sig in
// constant time. Signatures of the wrong length are not equal.
func (e *Engine) VerifyBytes(sig, payload []byte, canonical string) (bool, error) {
	expected, err := e.SignBytes(payload, canonical)
	if err != nil {
		return false, err
	}
	return hmac.Equal(sig, expected), nil
}

func (e *Engine) allows(id AlgorithmID) bool {
	for _, h := range e.hashes {
		if h == id {
			return true
		}
	}
	return false
}
