package recommend

import (
	"sort"

	"github.com/yanqian/outfit-recommender/internal/domain/outfit"
	"github.com/yanqian/outfit-recommender/internal/domain/weather"
)

// tier is one relaxation level of the candidate search.
type tier struct {
	name string
	// discovery narrows the store query to the expanded preference tags.
	discovery bool
	// weather narrows the store query to the active weather bucket.
	weather bool
	// excludeSeen drops filenames already admitted or excluded by the caller.
	excludeSeen bool
	// allowRepeat waives the caller's exclude list during admission.
	allowRepeat bool
}

// tierPlan is evaluated in order until the quota is met.
var tierPlan = []tier{
	{name: "primary", discovery: true, weather: true},
	{name: "fallback", weather: true, excludeSeen: true},
	{name: "repeat_matched", discovery: true, weather: true, allowRepeat: true},
	{name: "repeat_any", allowRepeat: true},
}

func (t tier) filter(q QueryContext, a *assembly) outfit.Filter {
	var f outfit.Filter
	if t.discovery {
		f.AnyTags = q.ExpandedTags
	}
	if t.weather && q.PreferredWeather != weather.BucketNone {
		f.Tag = string(q.PreferredWeather)
	}
	if t.excludeSeen {
		f.ExcludeFilenames = a.excludedFilenames()
	}
	return f
}

// assembly accumulates admitted outfits for a single response.
type assembly struct {
	q               QueryContext
	publicBase      string
	seenNames       map[string]struct{}
	seenURLs        map[string]struct{}
	outfits         []Outfit
	uniqueExhausted bool
}

func newAssembly(q QueryContext, publicBase string) *assembly {
	return &assembly{
		q:          q,
		publicBase: publicBase,
		seenNames:  make(map[string]struct{}, q.Quantity),
		seenURLs:   make(map[string]struct{}, q.Quantity),
		outfits:    make([]Outfit, 0, q.Quantity),
	}
}

func (a *assembly) full() bool {
	return len(a.outfits) >= a.q.Quantity
}

// admit applies the admission predicate and records the outfit when accepted.
func (a *assembly) admit(doc outfit.Document, allowRepeat bool) bool {
	if doc.Filename == "" {
		return false
	}
	if _, ok := a.seenNames[doc.Filename]; ok {
		return false
	}
	if !allowRepeat {
		if _, ok := a.q.ExcludeNames[doc.Filename]; ok {
			return false
		}
	}
	url := doc.ResolveURL(a.publicBase)
	if url == "" {
		return false
	}
	if _, ok := a.seenURLs[url]; ok {
		return false
	}
	if len(a.q.RequiredTags) > 0 && !outfit.ContainsAll(doc.NormalizedTagSet(), a.q.RequiredTags) {
		return false
	}

	source := doc.SourceURL
	if source == "" {
		source = url
	}
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	a.outfits = append(a.outfits, Outfit{Name: doc.Filename, Image: url, Tags: tags, SourceURL: source})
	a.seenNames[doc.Filename] = struct{}{}
	a.seenURLs[url] = struct{}{}
	return true
}

func (a *assembly) excludedFilenames() []string {
	names := make([]string, 0, len(a.seenNames)+len(a.q.ExcludeNames))
	for name := range a.seenNames {
		names = append(names, name)
	}
	for name := range a.q.ExcludeNames {
		if _, ok := a.seenNames[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
