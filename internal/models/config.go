package models

type GitProperties struct {
	GitBranch                string `json:"git.branch"`
	GitBuildHost             string `json:"git.build.host"`
	GitBuildTime             string `json:"git.build.time"`
	GitBuildUserEmail        string `json:"git.build.user.email"`
	GitBuildUserName         string `json:"git.build.user.name"`
	GitBuildVersion          string `json:"git.build.version"`
	GitClosestTagCommitCount string `json:"git.closest.tag.commit.count"`
	GitClosestTagName        string `json:"git.closest.tag.name"`
	GitCommitId              string `json:"git.commit.id"`
	GitCommitIdAbbrev        string `json:"git.commit.id.abbrev"`
	GitCommitIdDescribe      string `json:"git.commit.id.describe"`
	GitCommitIdDescribeShort string `json:"git.commit.id.describe-short"`
	GitCommitMessageFull     string `json:"git.commit.message.full"`
	GitCommitMessageShort    string `json:"git.commit.message.short"`
	GitCommitTime            string `json:"git.commit.time"`
	GitCommitUserEmail       string `json:"git.commit.user.email"`
	GitCommitUserName        string `json:"git.commit.user.name"`
	GitDirty                 string `json:"git.dirty"`
	GitRemoteOriginUrl       string `json:"git.remote.origin.url"`
	GitTags                  string `json:"git.tags"`
}

// ConfigModel describes the running service and the feed it serves.
type ConfigModel struct {
	GitProperties GitProperties `json:"gitProperties"`
	Id            string        `json:"id"`
	Name          string        `json:"name"`
	Timezone      string        `json:"timezone"`
	FeedLoadedAt  int64         `json:"feedLoadedAt"`
	StopCount     int           `json:"stopCount"`
	RouteCount    int           `json:"routeCount"`
	TripCount     int           `json:"tripCount"`
	Region        *Region       `json:"region,omitempty"`
}

type Region struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	LatSpan float64 `json:"latSpan"`
	LonSpan float64 `json:"lonSpan"`
}
