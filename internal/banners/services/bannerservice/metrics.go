package bannerservice

import "github.com/prometheus/client_golang/prometheus"

var groupCacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "banners_group_cache_lookups_total",
		Help: "Group member cache lookups by result (hit or miss).",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(groupCacheLookups)
}
