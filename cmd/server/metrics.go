package main

import (
	"time"

	"github.com/rvallejo/pinboard/internal/dashboard"
	"github.com/rvallejo/pinboard/internal/store"
)

func startBoardGaugeCollector(s *store.Store) {
	dash := dashboard.New(s)
	dash.PublishGauges()

	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		dash.PublishGauges()
	}
}
