// Package signature implements the X-Hub-Signature webhook scheme.
//
// An Engine holds a shared secret and an ordered allow-list of hash
// algorithms. It produces header values of the form "sha256=<hex>" over a
// payload and verifies them in constant time.
//
// # Algorithms
//
// Two algorithms are supported, keyed by their wire name:
//
//	sha1   -> SHA-1   (X-Hub-Signature)
//	sha256 -> SHA-256 (X-Hub-Signature-256)
//
// # Usage
//
//	engine, err := signature.New(signature.Options{
//	    Secret: os.Getenv("WEBHOOK_SECRET"),
//	    Hashes: []signature.AlgorithmID{signature.SHA256, signature.SHA1},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	header, _ := engine.Sign(string(body), signature.SHA256)
//
//	ok, err := engine.Verify(r.Header.Get(signature.HeaderSHA256), string(body), "")
//	switch {
//	case err != nil:
//	    // malformed header or disallowed algorithm
//	case !ok:
//	    // well-formed header, wrong signature
//	}
//
// Verification errors are *errors.AppError values and can be matched with
// errors.Is against ErrMalformedHeader, ErrAlgorithmMismatch,
// ErrAlgorithmNotAllowed and ErrUnsupportedAlgorithm. A signature that simply
// does not match is reported as false with a nil error.
//
// # Concurrency
//
// An Engine is immutable after New and safe for concurrent use. Each call
// keys its own HMAC instance.
package signature
