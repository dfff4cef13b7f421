package completion

import "strings"

// stopSequences are matched as substrings of the accumulated buffer,
// per spec.md §6.
var stopSequences = []string{
	"USER:", "\nUSER:",
	"Human:", "\nHuman:",
	"Assistant:", "\nAssistant:",
	"[INST]", "[/INST]", "<s>", "</s>",
	"---", "***", "\n\n\n",
	"Example:", "Note:", "Source:",
}

// firstStopSequence reports the earliest-starting stop sequence present in
// buf, if any, so the caller can truncate the accumulated buffer at the
// point the model began drifting into framing text.
func firstStopSequence(buf string) (seq string, idx int, found bool) {
	best := -1
	var bestSeq string
	for _, s := range stopSequences {
		if i := strings.Index(buf, s); i >= 0 && (best == -1 || i < best) {
			best = i
			bestSeq = s
		}
	}
	if best == -1 {
		return "", 0, false
	}
	return bestSeq, best, true
}
