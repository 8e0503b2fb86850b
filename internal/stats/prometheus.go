package stats

import "github.com/prometheus/client_golang/prometheus"

// PrometheusSink is a StatsSink that reports the same counters Counters
// does, as Prometheus counters, for callers that already scrape a
// /metrics endpoint and want colakv folded into it rather than polled
// separately.
type PrometheusSink struct {
	levelMerges         prometheus.Counter
	fullScanCompactions prometheus.Counter
	adds                prometheus.Counter
	gets                prometheus.Counter
	getHits             prometheus.Counter
	willfull            prometheus.Counter
}

var _ StatsSink = (*PrometheusSink)(nil)

// NewPrometheusSink builds a PrometheusSink and registers its counters
// with reg. namespace prefixes every metric name, e.g. "colakv_adds_total".
func NewPrometheusSink(reg prometheus.Registerer, namespace string) (*PrometheusSink, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}

	s := &PrometheusSink{
		levelMerges:         counter("level_merges_total", "Number of level-to-level merge pushes performed."),
		fullScanCompactions: counter("full_scan_compactions_total", "Number of full-merge (InOne) passes performed."),
		adds:                counter("adds_total", "Number of Add calls."),
		gets:                counter("gets_total", "Number of Get calls."),
		getHits:             counter("get_hits_total", "Number of Get calls that found a live value."),
		willfull:            counter("willfull_total", "Number of times the structure was observed to become willfull."),
	}

	collectors := []prometheus.Collector{
		s.levelMerges, s.fullScanCompactions, s.adds, s.gets, s.getHits, s.willfull,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *PrometheusSink) IncLevelMerges()         { s.levelMerges.Inc() }
func (s *PrometheusSink) IncFullScanCompactions() { s.fullScanCompactions.Inc() }
func (s *PrometheusSink) IncAdds()                { s.adds.Inc() }
func (s *PrometheusSink) IncGets()                { s.gets.Inc() }
func (s *PrometheusSink) IncGetHits()             { s.getHits.Inc() }
func (s *PrometheusSink) IncWillfull()            { s.willfull.Inc() }
