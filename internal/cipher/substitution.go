package cipher

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// englishFrequencyOrder lists plaintext letters most common first.
	englishFrequencyOrder = "ETAOINSHRDLCUMWFGYPBVKJXQZ"

	// pcgStream is the fixed second PCG word; the first comes from Seed.
	pcgStream = 0x9e3779b97f4a7c15
)

// Key maps each ciphertext letter (index 0 is 'A') to its plaintext letter.
// A valid Key is a permutation of A-Z.
type Key [26]byte

// IdentityKey maps every letter to itself.
func IdentityKey() Key {
	var k Key
	for i := range k {
		k[i] = alphabet[i]
	}
	return k
}

// KeyFromAlphabet builds the decryption key for an encryption alphabet,
// where alphabet[i] is the ciphertext letter for plaintext letter 'A'+i.
func KeyFromAlphabet(cipherAlphabet string) (Key, error) {
	upper := strings.ToUpper(strings.TrimSpace(cipherAlphabet))
	if len(upper) != 26 {
		return Key{}, invalidParam("key", "expected 26 letters, got %d", len(upper))
	}
	var k Key
	var seen [26]bool
	for i := 0; i < 26; i++ {
		c := upper[i]
		if c < 'A' || c > 'Z' {
			return Key{}, invalidParam("key", "non-letter %q at position %d", c, i)
		}
		if seen[c-'A'] {
			return Key{}, invalidParam("key", "letter %c appears twice", c)
		}
		seen[c-'A'] = true
		k[c-'A'] = alphabet[i]
	}
	return k, nil
}

// CipherAlphabet returns the encryption alphabet matching k.
func (k Key) CipherAlphabet() string {
	var out [26]byte
	for c, p := range k {
		out[p-'A'] = alphabet[c]
	}
	return string(out[:])
}

// Valid reports whether k is a permutation of A-Z.
func (k Key) Valid() bool {
	var seen [26]bool
	for _, p := range k {
		if p < 'A' || p > 'Z' || seen[p-'A'] {
			return false
		}
		seen[p-'A'] = true
	}
	return true
}

// String renders the plaintext targets in ciphertext order.
func (k Key) String() string {
	return string(k[:])
}

// Decrypt applies k to every ASCII letter of text, preserving case.
func (k Key) Decrypt(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z':
			return rune(k[r-'A'])
		case r >= 'a' && r <= 'z':
			return rune(k[r-'a']) + ('a' - 'A')
		default:
			return r
		}
	}, text)
}

// SeedKey pairs ciphertext letters, most frequent first, with English
// letters in frequency order. Equal counts keep alphabetical order.
func SeedKey(ciphertext string) Key {
	var counts [26]int
	for _, r := range strings.ToUpper(ciphertext) {
		if r >= 'A' && r <= 'Z' {
			counts[r-'A']++
		}
	}

	letters := []byte(alphabet)
	sort.SliceStable(letters, func(i, j int) bool {
		return counts[letters[i]-'A'] > counts[letters[j]-'A']
	})

	var k Key
	for rank, c := range letters {
		k[c-'A'] = englishFrequencyOrder[rank]
	}
	return k
}

// Seed derives the PRNG seed for one restart: FNV-1a 64 of the ciphertext
// bytes plus the attempt index, wrapping on overflow.
func Seed(ciphertext string, attempt int) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(ciphertext))
	return h.Sum64() + uint64(attempt)
}

// Climb is the result of one hill-climbing attempt.
type Climb struct {
	Attempt int
	Key     Key
	Text    string
	Score   float64
}

// stepFunc observes the retained score after each iteration.
type stepFunc func(iteration int, score float64)

// climb runs one greedy ascent from start. A swap is kept only when it
// strictly improves the score.
func (o *Oracle) climb(ciphertext string, start Key, iterations int, rng *rand.Rand, observe stepFunc) Climb {
	key := start
	text := key.Decrypt(ciphertext)
	score := o.Score(text)

	for it := 0; it < iterations; it++ {
		i := rng.IntN(26)
		j := rng.IntN(25)
		if j >= i {
			j++
		}

		cand := key
		cand[i], cand[j] = cand[j], cand[i]
		candText := cand.Decrypt(ciphertext)
		if s := o.Score(candText); s > score {
			key, text, score = cand, candText, s
		}
		if observe != nil {
			observe(it, score)
		}
	}
	return Climb{Key: key, Text: text, Score: score}
}

// rngFor returns the deterministic generator for one attempt.
func rngFor(ciphertext string, attempt int) *rand.Rand {
	seed := Seed(ciphertext, attempt)
	return rand.New(rand.NewPCG(seed, seed^pcgStream))
}

type substitutionDecoder struct {
	BaseDecoder
	oracle     *Oracle
	restarts   int
	iterations int
	parallel   int
}

// NewSubstitutionDecoder returns the monoalphabetic substitution solver.
// A "key" parameter (26-letter encryption alphabet) skips the search.
func NewSubstitutionDecoder(oracle *Oracle, cfg SolverConfig) Decoder {
	return newSubstitutionDecoder(oracle, cfg)
}

func newSubstitutionDecoder(oracle *Oracle, cfg SolverConfig) *substitutionDecoder {
	return &substitutionDecoder{
		BaseDecoder: BaseDecoder{
			KindValue:        KindSubstitution,
			DescriptionValue: "Monoalphabetic substitution; frequency-seeded hill climbing with random restarts",
		},
		oracle:     oracle,
		restarts:   max(cfg.Restarts, 1),
		iterations: max(cfg.Iterations, 0),
		parallel:   max(cfg.Parallel, 1),
	}
}

// Solve runs every restart and returns the best climb. Restarts may run
// concurrently, but selection is in attempt order so the result does not
// depend on scheduling.
func (d *substitutionDecoder) Solve(ctx context.Context, ciphertext string) (Climb, error) {
	start := SeedKey(ciphertext)
	results := make([]Climb, d.restarts)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.parallel)
	for attempt := 0; attempt < d.restarts; attempt++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := d.oracle.climb(ciphertext, start, d.iterations, rngFor(ciphertext, attempt), nil)
			c.Attempt = attempt
			results[attempt] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Climb{}, fmt.Errorf("solve substitution: %w", err)
	}

	top := Climb{Score: math.Inf(-1)}
	for _, c := range results {
		if c.Score > top.Score {
			top = c
		}
	}
	return top, nil
}

func (d *substitutionDecoder) Decode(ctx context.Context, input string, params Params) Outcome {
	alpha, ok, err := params.String("key")
	if err != nil {
		return Failed(err)
	}
	if ok {
		key, err := KeyFromAlphabet(alpha)
		if err != nil {
			return Failed(err)
		}
		return Decoded(key.Decrypt(input))
	}

	c, err := d.Solve(ctx, input)
	if err != nil {
		return Failed(err)
	}
	return Decoded(c.Text)
}

func (d *substitutionDecoder) Encode(input string, params Params) (string, error) {
	alpha, ok, err := params.String("key")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", invalidParam("key", "required for encoding")
	}
	return EncodeSubstitution(input, alpha)
}

// EncodeSubstitution replaces plaintext letter 'A'+i with cipherAlphabet[i],
// preserving case.
func EncodeSubstitution(text, cipherAlphabet string) (string, error) {
	if _, err := KeyFromAlphabet(cipherAlphabet); err != nil {
		return "", err
	}
	upper := strings.ToUpper(strings.TrimSpace(cipherAlphabet))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z':
			return rune(upper[r-'A'])
		case r >= 'a' && r <= 'z':
			return rune(upper[r-'a']) + ('a' - 'A')
		default:
			return r
		}
	}, text), nil
}

// SolveSubstitution breaks ciphertext with the given solver settings.
func SolveSubstitution(ctx context.Context, oracle *Oracle, cfg SolverConfig, ciphertext string) (Climb, error) {
	return newSubstitutionDecoder(oracle, cfg).Solve(ctx, ciphertext)
}
