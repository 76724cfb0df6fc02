package cipher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const substitutionSample = "Uii ozy ixhg lr ozy fdcgolqg nqry. Ozy jjqfqd qgdrd ofold vqel ozy iqjjqj."

func TestSeed(t *testing.T) {
	assert.Equal(t, uint64(0xcbf29ce484222325), Seed("", 0))
	assert.Equal(t, uint64(0xaf63dc4c8601ec8c), Seed("a", 0))
	assert.Equal(t, Seed("YMJ HTIJ", 0)+3, Seed("YMJ HTIJ", 3))
}

func TestSeedKey(t *testing.T) {
	k := SeedKey("EEEAAB")
	assert.Equal(t, "TAOIENSHRDLCUMWFGYPBVKJXQZ", k.String())
	assert.True(t, k.Valid())

	// No letters at all: every count ties, so alphabetical order pairs with
	// the frequency order.
	assert.Equal(t, englishFrequencyOrder, SeedKey("123").String())
}

func TestKeyFromAlphabet(t *testing.T) {
	alpha := "QWERTYUIOPASDFGHJKLZXCVBNM"
	k, err := KeyFromAlphabet(alpha)
	require.NoError(t, err)
	assert.True(t, k.Valid())
	assert.Equal(t, alpha, k.CipherAlphabet())

	encoded, err := EncodeSubstitution("Attack at dawn!", alpha)
	require.NoError(t, err)
	assert.Equal(t, "Qzzqea qz rqvf!", encoded)
	assert.Equal(t, "Attack at dawn!", k.Decrypt(encoded))

	for _, bad := range []string{"ABC", "AACDEFGHIJKLMNOPQRSTUVWXYZ", "ABCDEFGHIJKLMNOPQRSTUVWXY1"} {
		_, err := KeyFromAlphabet(bad)
		assert.ErrorIs(t, err, ErrInvalidParam, bad)
	}
}

func TestKeyDecryptPassesThroughNonLetters(t *testing.T) {
	k := IdentityKey()
	k[0], k[1] = k[1], k[0]
	assert.Equal(t, "Ba, ab 123 é!", k.Decrypt("Ab, ba 123 é!"))
}

func TestClimbMonotonic(t *testing.T) {
	o := DefaultOracle()
	start := SeedKey(substitutionSample)
	startScore := o.Score(start.Decrypt(substitutionSample))

	prev := startScore
	steps := 0
	res := o.climb(substitutionSample, start, 2000, rngFor(substitutionSample, 0), func(_ int, score float64) {
		steps++
		if score < prev {
			t.Fatalf("retained score decreased from %v to %v", prev, score)
		}
		prev = score
	})

	assert.Equal(t, 2000, steps)
	assert.True(t, res.Key.Valid(), "key must stay a permutation")
	assert.GreaterOrEqual(t, res.Score, startScore)
	assert.Equal(t, o.Score(res.Text), res.Score)
	assert.Equal(t, res.Key.Decrypt(substitutionSample), res.Text)
}

func TestSolveSubstitutionDeterministic(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	cfg := DefaultSolverConfig()

	first, err := SolveSubstitution(ctx, DefaultOracle(), cfg, substitutionSample)
	require.NoError(t, err)
	second, err := SolveSubstitution(ctx, DefaultOracle(), cfg, substitutionSample)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	cfg.Parallel = 4
	parallel, err := SolveSubstitution(ctx, DefaultOracle(), cfg, substitutionSample)
	require.NoError(t, err)
	assert.Equal(t, first, parallel, "parallel restarts must pick the same winner")

	assert.Equal(t, decodeWith(t, KindSubstitution, substitutionSample, nil),
		decodeWith(t, KindSubstitution, substitutionSample, nil))
}

func TestSolveSubstitutionKeepsBestRestart(t *testing.T) {
	cfg := DefaultSolverConfig()
	best, err := SolveSubstitution(context.Background(), DefaultOracle(), cfg, substitutionSample)
	require.NoError(t, err)

	start := SeedKey(substitutionSample)
	for attempt := 0; attempt < cfg.Restarts; attempt++ {
		c := DefaultOracle().climb(substitutionSample, start, cfg.Iterations, rngFor(substitutionSample, attempt), nil)
		assert.LessOrEqual(t, c.Score, best.Score)
		if c.Score == best.Score {
			assert.LessOrEqual(t, best.Attempt, attempt, "ties keep the earliest attempt")
		}
	}
}

func TestSubstitutionDecode(t *testing.T) {
	alpha := "QWERTYUIOPASDFGHJKLZXCVBNM"
	got := decodeWith(t, KindSubstitution, "Qzzqea qz rqvf!", Params{"key": alpha})
	assert.Equal(t, "DECODED: ATTACK AT DAWN!", got)

	got = decodeWith(t, KindSubstitution, "abc", Params{"key": "short"})
	assert.True(t, strings.HasPrefix(got, "Error decrypting substitution cipher: invalid parameter key"), got)

	out := decodeWith(t, KindSubstitution, substitutionSample, nil)
	require.True(t, strings.HasPrefix(out, "DECODED: "))
	// Punctuation and spacing survive the search.
	assert.Equal(t, strings.Count(substitutionSample, "."), strings.Count(out, "."))
}

func TestSolveSubstitutionCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SolveSubstitution(ctx, DefaultOracle(), DefaultSolverConfig(), substitutionSample)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	out, err := DefaultRegistry().Decode(ctx, KindSubstitution, substitutionSample, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Error decrypting substitution cipher: "), out)
}
