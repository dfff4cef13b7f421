package compressor

import "fmt"

// Options carries the budget inputs named in spec.md §6.
type Options struct {
	Model           string
	Complexity      float64
	MessageType     string
	HistoryLen      int
	ForcedStrategy  Strategy
	CommunicationType string // used only by the fallback one-liner
}

// Compress runs the full C5 pipeline. On any internal error it returns the
// fixed one-line fallback and marks Result.Fallback, per spec.md §4.5.
func Compress(ic IntelligenceContext, opts Options) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = fallback(opts)
		}
	}()

	profile := ProfileFor(opts.Model)
	budget := Budget(profile, opts.Complexity, opts.MessageType, opts.HistoryLen)
	strategy := SelectStrategy(budget, opts.ForcedStrategy)

	clusters := BuildClusters(ic)
	allocated := Allocate(strategy, clusters, budget)

	compressed := make(map[string]string, len(clusters))
	for name, c := range clusters {
		compressed[name] = CompressCluster(c, allocated[name])
	}

	text := assemble(compressed, budget)
	return Result{Text: text, Fallback: false, Strategy: strategy, Budget: budget}
}

func fallback(opts Options) Result {
	ctype := opts.CommunicationType
	if ctype == "" {
		ctype = "neutral"
	}
	return Result{
		Text:     fmt.Sprintf("User shows %s communication pattern.", ctype),
		Fallback: true,
	}
}
