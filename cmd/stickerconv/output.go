package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/maauso/stickerconv/internal/batch"
	"github.com/maauso/stickerconv/internal/pack"
)

func printOutcome(w io.Writer, o batch.Outcome) {
	if !o.OK() {
		fmt.Fprintf(w, "❌ Failed '%s': %s\n", o.Item.Source, o.Err)
		return
	}

	r := o.Result
	details := []string{formatSize(r.SizeBytes), fmt.Sprintf("q=%d", r.Quality)}
	if r.Animated {
		details = append(details, fmt.Sprintf("%d frames", r.Frames), formatMs(r.DurationMs))
	}
	details = append(details, o.Elapsed.Round(time.Millisecond).String())

	glyph, verb := "🟢", "Saved"
	if r.Degraded {
		glyph, verb = "⚠️", "Over the size limit, saved anyway"
	}
	fmt.Fprintf(w, "%s %s '%s' (%s) → %s\n", glyph, verb, r.Name, strings.Join(details, ", "), r.Path)
}

func printPacks(w io.Writer, out *pack.Outcome) {
	for _, p := range out.Manifest.StickerPacks {
		fmt.Fprintf(w, "📦 Pack '%s' with %d stickers\n", p.Name, len(p.Stickers))
	}
	if len(out.Skipped) > 0 {
		fmt.Fprintf(w, "⚠️ %d stickers left out of packs (fewer than %d of their kind)\n", len(out.Skipped), pack.MinStickers)
	}
	fmt.Fprintf(w, "📁 Manifest: %s\n", out.ManifestLocation)
}

func printSummary(w io.Writer, report *batch.Report) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "🟢 Converted: %d\n", len(report.Succeeded()))
	if n := report.Degraded(); n > 0 {
		fmt.Fprintf(w, "⚠️ Over the size limit: %d\n", n)
	}
	fmt.Fprintf(w, "❌ Failed: %d\n", len(report.Failed()))
}

func formatSize(n int) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f KiB", float64(n)/1024)
}

func formatMs(ms int) string {
	return fmt.Sprintf("%.2fs", float64(ms)/1000)
}
