package attribute

import (
	"crypto/rand"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"strconv"
	"time"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// bytes at or above this value would bias the modulo; 248 = 4 * 62
const maxUnbiased = 256 - 256%len(alphabet)

const secondsPerDay = 24 * 60 * 60

// TimestampLayout is how timestamp values are rendered.
const TimestampLayout = time.DateTime

// Value is one generated attribute value.
type Value struct {
	Kind Kind
	Text string
	Int  int64
	Time time.Time
}

// String renders the value the way it is written to SQL, without quoting.
func (v Value) String() string {
	switch v.Kind {
	case Text:
		return v.Text
	case Integer:
		return strconv.FormatInt(v.Int, 10)
	case Timestamp:
		return v.Time.Format(TimestampLayout)
	default:
		return ""
	}
}

// Tuple holds the values generated for one point, keyed by kind. Kinds that
// are not active are absent.
type Tuple map[Kind]Value

// Synthesizer generates attribute tuples.
type Synthesizer struct {
	rng  *mrand.Rand
	text io.Reader
	buf  []byte
}

// NewSynthesizer returns a synthesizer drawing numbers from rng and text
// symbols from text. A nil text reader means crypto/rand.
func NewSynthesizer(rng *mrand.Rand, text io.Reader) *Synthesizer {
	if text == nil {
		text = rand.Reader
	}
	return &Synthesizer{rng: rng, text: text}
}

// Generate produces one value per active kind in spec.
func (s *Synthesizer) Generate(spec Spec) (Tuple, error) {
	t := make(Tuple, spec.Active.Len())

	if spec.Active.Has(Text) {
		str, err := s.randomText(spec.TextLength)
		if err != nil {
			return nil, err
		}
		t[Text] = Value{Kind: Text, Text: str}
	}

	if spec.Active.Has(Integer) {
		t[Integer] = Value{Kind: Integer, Int: s.randomInt(spec.IntegerLow, spec.IntegerHigh)}
	}

	if spec.Active.Has(Timestamp) {
		t[Timestamp] = Value{Kind: Timestamp, Time: s.randomTime(spec.StartDate, spec.EndDate)}
	}

	return t, nil
}

// randomText draws n symbols uniformly from the alphanumeric alphabet.
func (s *Synthesizer) randomText(n int) (string, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		need := n - len(out)
		if cap(s.buf) < need*2 {
			s.buf = make([]byte, need*2)
		}
		buf := s.buf[:need*2]
		if _, err := io.ReadFull(s.text, buf); err != nil {
			return "", fmt.Errorf("failed to read random text: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// randomInt draws uniformly from [lo, hi). The span is computed in uint64 so
// the full int64 range does not overflow.
func (s *Synthesizer) randomInt(lo, hi int64) int64 {
	span := uint64(hi) - uint64(lo)
	return int64(uint64(lo) + s.rng.Uint64N(span))
}

// randomTime draws a day in [start, end) and a second of that day.
func (s *Synthesizer) randomTime(start, end Date) time.Time {
	from := start.Time()
	days := int((end.Time().Unix() - from.Unix()) / secondsPerDay)
	day := from.AddDate(0, 0, s.rng.IntN(days))
	return day.Add(time.Duration(s.rng.IntN(secondsPerDay)) * time.Second)
}
