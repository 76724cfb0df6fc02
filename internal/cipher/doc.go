// Package cipher breaks classical ciphers and text-hiding schemes without a
// key.
//
// # Overview
//
// Each supported Kind has a Decoder that turns ciphertext into an Outcome:
//   - Decoded text, normalized to upper case with single spaces
//   - NoMessageDetected, for steganographic kinds that found nothing
//   - NoValidEncoding, for numeric encodings that do not fit
//   - Failed, carrying the cause
//
// Ambiguous decoders (Caesar, substitution, Rail Fence, multi-layer) rank
// their hypotheses with an Oracle, a pure English-likeness score.
//
// # Quick Start
//
//	reg, _ := cipher.NewRegistry(cipher.DefaultSolverConfig())
//
//	out, _ := reg.Decode(ctx, cipher.KindCaesar, "YMJ HTIJ", nil)
//	// out: "DECODED: THE CODE"
//
//	out, _ = reg.Decode(ctx, cipher.KindNumeric, "8 5 30", nil)
//	// out: "NO VALID ENCODING DETECTED"
//
// Parameterized variants skip the search:
//
//	out, _ = reg.Decode(ctx, cipher.KindRailFence, "HLOOLELWRD", cipher.Params{"rails": 2})
//	// out: "DECODED: HELLOWORLD"
//
// # Identification
//
//	det := cipher.NewDetector(reg.Oracle())
//	results, _ := det.Detect(ctx, ".... . .-.. .-.. ---")
//	// results[0].Kind == cipher.KindMorse
//
// # Chains and Recipes
//
// Layered ciphertext is undone by a Chain; a RecipeManager stores named
// chains as YAML files:
//
//	chain := cipher.Chain{Steps: []cipher.Step{
//	    {Kind: cipher.KindAtbash},
//	    {Kind: cipher.KindCaesar, Params: cipher.Params{"shift": 3}},
//	}}
//	res, _ := chain.Execute(ctx, reg, ciphertext)
//
// # Determinism
//
// The substitution solver draws from a PCG generator seeded with
// Seed(ciphertext, attempt), the FNV-1a 64-bit hash of the ciphertext plus
// the restart index. Identical input always yields identical output,
// whatever the degree of restart parallelism.
//
// # Thread Safety
//
// A Registry is safe for concurrent use once built, and decoders hold no
// mutable state. RecipeManager uses internal locking.
package cipher
