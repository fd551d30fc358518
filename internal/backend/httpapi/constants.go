package httpapi

import "time"

const (
	defaultBaseURL     = "http://localhost:4000"
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBody       = 512

	pathArcherLogin     = "/api/archer/login"
	pathRecorderLogin   = "/api/recorder/login"
	pathCompetitions    = "/api/competitions"
	pathEndScoreStaging = "/api/archer/round/endscore-staging"
	pathEligibility     = "/api/archer/round/eligibility"
	pathArrowStaging    = "/api/arrowStaging"
	pathRejectStaging   = "/api/arrowStaging/reject"
	pathPendingEnds     = "/api/recorder/ends/pending"
	pathRecorderUpdate  = "/api/recorder/round/update"
	pathFmtRoundRanges  = "/api/round/%d/ranges"
	pathFmtRanking      = "/api/competition/%d/round/%d/ranking"
	pathFmtCompRounds   = "/api/competition/%d/rounds"
	pathFmtArcherComps  = "/api/archer/%d/competitions"
)
