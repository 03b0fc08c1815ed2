package sticker

// Trim raises every frame duration to at least minFrameMs and then keeps the
// frames in order while the running total stays within maxTotalMs. The walk
// stops at the first frame that would overflow the cap; later frames are
// dropped even if they are short enough to fit. Apart from the exception
// below, every kept duration is max(d, minFrameMs).
//
// Exception: when the first frame alone is longer than the cap, Trim returns
// just that frame with its duration shortened to maxTotalMs, so non-empty
// input never produces an empty animation. This is the only case in which a
// duration is lowered.
//
// The input slice is not modified.
func Trim(frames []TimedFrame, minFrameMs, maxTotalMs int) []TimedFrame {
	if len(frames) == 0 {
		return nil
	}

	out := make([]TimedFrame, 0, len(frames))
	total := 0
	for _, f := range frames {
		d := max(f.DurationMs, minFrameMs)
		if total+d > maxTotalMs {
			break
		}
		total += d
		out = append(out, TimedFrame{Frame: f.Frame, DurationMs: d})
	}

	if len(out) == 0 {
		out = append(out, TimedFrame{Frame: frames[0].Frame, DurationMs: maxTotalMs})
	}

	return out
}

func flooredTotalMs(frames []TimedFrame, minFrameMs int) int {
	total := 0
	for _, f := range frames {
		total += max(f.DurationMs, minFrameMs)
	}
	return total
}
