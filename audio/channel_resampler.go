// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"strings"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Quality selects the filter preset of the resampler.
type Quality int

const (
	QualityHigh Quality = iota
	QualityQuick
	QualityLow
	QualityMedium
	QualityVeryHigh
)

func (q Quality) spec() resampling.QualitySpec {
	switch q {
	case QualityQuick:
		return resampling.QualitySpec{Preset: resampling.QualityQuick}
	case QualityLow:
		return resampling.QualitySpec{Preset: resampling.QualityLow}
	case QualityMedium:
		return resampling.QualitySpec{Preset: resampling.QualityMedium}
	case QualityVeryHigh:
		return resampling.QualitySpec{Preset: resampling.QualityVeryHigh}
	default:
		return resampling.QualitySpec{Preset: resampling.QualityHigh}
	}
}

func (q Quality) String() string {
	switch q {
	case QualityQuick:
		return "quick"
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityVeryHigh:
		return "very-high"
	default:
		return "high"
	}
}

// ParseQuality is the inverse of Quality.String. Matching ignores case.
func ParseQuality(s string) (Quality, error) {
	for _, q := range []Quality{QualityHigh, QualityQuick, QualityLow, QualityMedium, QualityVeryHigh} {
		if strings.EqualFold(s, q.String()) {
			return q, nil
		}
	}

	return QualityHigh, fmt.Errorf("unknown resampler quality %q", s)
}

// channelResampler runs one mono resampler per channel over interleaved
// input, so every channel keeps independent filter state.
type channelResampler struct {
	channels int
	engines  []resampling.Resampler

	ins  [][]float64
	outs [][]float64
}

func newChannelResampler(channels, inputRate, outputRate int, q Quality) (*channelResampler, error) {
	cr := &channelResampler{
		channels: channels,
		engines:  make([]resampling.Resampler, channels),
		ins:      make([][]float64, channels),
		outs:     make([][]float64, channels),
	}

	for c := range channels {
		r, err := resampling.New(&resampling.Config{
			InputRate:  float64(inputRate),
			OutputRate: float64(outputRate),
			Channels:   1,
			Quality:    q.spec(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create resampler: %w", err)
		}
		cr.engines[c] = r
	}

	return cr, nil
}

// process resamples frames interleaved frames from in and appends the
// interleaved output to out. When final is set the filter tails are flushed
// and the resampler must not be fed again.
func (cr *channelResampler) process(in []float32, frames int, final bool, out []float32) ([]float32, error) {
	produced := -1

	for c, eng := range cr.engines {
		if cap(cr.ins[c]) < frames {
			cr.ins[c] = make([]float64, frames)
		}
		buf := cr.ins[c][:frames]
		for f := range frames {
			buf[f] = float64(in[f*cr.channels+c])
		}

		var res []float64
		if frames > 0 {
			r, err := eng.Process(buf)
			if err != nil {
				return out, fmt.Errorf("resample error: %w", err)
			}
			res = append(cr.outs[c][:0], r...)
		} else {
			res = cr.outs[c][:0]
		}

		if final {
			tail, err := eng.Flush()
			if err != nil {
				return out, fmt.Errorf("resample flush error: %w", err)
			}
			res = append(res, tail...)
		}

		cr.outs[c] = res
		if produced < 0 || len(res) < produced {
			produced = len(res)
		}
	}

	for f := range max(produced, 0) {
		for c := range cr.channels {
			out = append(out, float32(cr.outs[c][f]))
		}
	}

	return out, nil
}
