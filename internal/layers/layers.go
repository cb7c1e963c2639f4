// Package layers groups the lexical extractors into the six ordered detection
// layers and walks them with the early-exit policy.
package layers

import (
	"fmt"
	"log"

	"aegis/internal/features"
	"aegis/internal/models"
	"aegis/internal/rules"
)

// Layer is one ordered group of extractors.
type Layer interface {
	Position() int
	Name() string
	Evaluate(in *features.Input) Outcome
}

// Outcome is what a layer found. RuleIndex is the position of the matching
// extractor inside the layer and is only meaningful when Matched is set.
type Outcome struct {
	Matched   bool
	RuleIndex int
	Result    features.Result
	Note      string // detail from a non-matching extractor worth showing
	Faults    int    // extractors that panicked and were treated as no match
}

// Hit identifies the layer and rule that decided a scan.
type Hit struct {
	Position  int
	Layer     string
	Rule      string
	RuleIndex int
	Detail    string
}

// Report is the result of walking the layers for one URL.
type Report struct {
	Verdicts []models.LayerVerdict
	Hit      *Hit
	Faults   int
}

type group struct {
	position   int
	name       string
	extractors []features.Extractor
}

func (g *group) Position() int { return g.position }
func (g *group) Name() string  { return g.name }

func (g *group) Evaluate(in *features.Input) Outcome {
	var out Outcome
	for i, e := range g.extractors {
		r, err := safeRun(e, in)
		if err != nil {
			log.Printf("layer %d (%s): %v", g.position, g.name, err)
			out.Faults++
			continue
		}
		if r.Matched {
			out.Matched, out.RuleIndex, out.Result = true, i, r
			return out
		}
		if out.Note == "" && r.Detail != "" {
			out.Note = r.Detail
		}
	}
	return out
}

func safeRun(e features.Extractor, in *features.Input) (r features.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("extractor %q failed: %v", e.Name, p)
		}
	}()
	return e.Run(in), nil
}

// New builds a layer from an ordered list of extractors.
func New(position int, name string, extractors ...features.Extractor) Layer {
	return &group{position: position, name: name, extractors: extractors}
}

// Default returns the six canonical layers in evaluation order.
func Default(r *rules.Rules) []Layer {
	c := features.NewCatalog(r)
	return []Layer{
		New(1, "Structural", c.IPLiteralHost, c.ExplicitPort, c.InsecureScheme),
		New(2, "Lexical", c.LongOpaqueToken, c.ConsonantCluster, c.HighEntropy),
		New(3, "Branding", c.BrandImpersonation),
		New(4, "Homograph", c.Punycode, c.Lookalike, c.SimilarDomain),
		New(5, "Obfuscation", c.Shortener, c.AtObfuscation),
		New(6, "Masking", c.FakeExtension, c.SubdomainDepth, c.SuspiciousTLD),
	}
}

// Run evaluates ls in order. The first layer that matches becomes the Hit and
// every later layer is reported as Skipped without being evaluated.
func Run(ls []Layer, in *features.Input) Report {
	rep := Report{Verdicts: make([]models.LayerVerdict, 0, len(ls))}
	for _, l := range ls {
		if rep.Hit != nil {
			rep.Verdicts = append(rep.Verdicts, skipped(l))
			continue
		}
		out := l.Evaluate(in)
		rep.Faults += out.Faults
		v := models.LayerVerdict{Position: l.Position(), Name: l.Name(), Status: models.LayerSafe, Evidence: "Clean"}
		if out.Note != "" {
			v.Evidence = out.Note
		}
		if out.Matched {
			v.Status = models.LayerRisk
			v.Rule = out.Result.Name
			v.Evidence = out.Result.Detail
			rep.Hit = &Hit{
				Position:  l.Position(),
				Layer:     l.Name(),
				Rule:      out.Result.Name,
				RuleIndex: out.RuleIndex,
				Detail:    out.Result.Detail,
			}
		}
		rep.Verdicts = append(rep.Verdicts, v)
	}
	return rep
}

// Skip reports every layer as Skipped; used when the blocklist has already decided.
func Skip(ls []Layer) Report {
	rep := Report{Verdicts: make([]models.LayerVerdict, 0, len(ls))}
	for _, l := range ls {
		rep.Verdicts = append(rep.Verdicts, skipped(l))
	}
	return rep
}

func skipped(l Layer) models.LayerVerdict {
	return models.LayerVerdict{Position: l.Position(), Name: l.Name(), Status: models.LayerSkipped, Evidence: "Skipped"}
}
