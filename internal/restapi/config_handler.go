package restapi

import (
	"net/http"

	"tripplanner.org/internal/buildinfo"
	"tripplanner.org/internal/models"
)

func (api *RestAPI) configHandler(w http.ResponseWriter, r *http.Request) {
	shortHash := "unknown"
	if len(buildinfo.CommitHash) >= 7 {
		shortHash = buildinfo.CommitHash[:7]
	}

	gitProps := models.GitProperties{
		GitBranch:                buildinfo.Branch,
		GitBuildTime:             buildinfo.BuildTime,
		GitBuildVersion:          buildinfo.Version,
		GitCommitId:              buildinfo.CommitHash,
		GitCommitTime:            buildinfo.CommitTime,
		GitDirty:                 buildinfo.Dirty,
		GitCommitIdAbbrev:        shortHash,
		GitBuildHost:             buildinfo.Host,
		GitBuildUserEmail:        buildinfo.UserEmail,
		GitBuildUserName:         buildinfo.UserName,
		GitCommitUserEmail:       buildinfo.UserEmail,
		GitCommitUserName:        buildinfo.UserName,
		GitRemoteOriginUrl:       buildinfo.RemoteURL,
		GitCommitMessageShort:    buildinfo.CommitMessage,
		GitCommitMessageFull:     buildinfo.CommitMessage,
		GitCommitIdDescribe:      buildinfo.Version,
		GitCommitIdDescribeShort: buildinfo.Version,
	}

	configEntry := models.ConfigModel{
		GitProperties: gitProps,
		Id:            "tripplanner",
		Name:          "Transit Trip Planner",
	}
	if api.Location != nil {
		configEntry.Timezone = api.Location.String()
	}

	if api.GtfsManager != nil {
		if idx := api.GtfsManager.Snapshot(); idx != nil {
			configEntry.StopCount = len(idx.Stops())
			configEntry.RouteCount = len(idx.Routes())
			configEntry.TripCount = len(idx.Trips())
		}
		if loaded := api.GtfsManager.LastUpdated(); !loaded.IsZero() {
			configEntry.FeedLoadedAt = loaded.UnixMilli()
		}
		if bounds := api.GtfsManager.RegionBounds(); bounds != nil {
			configEntry.Region = &models.Region{
				Lat:     bounds.Lat,
				Lon:     bounds.Lon,
				LatSpan: bounds.LatSpan,
				LonSpan: bounds.LonSpan,
			}
		}
	}

	api.sendResponse(w, r, models.NewEntryResponse(configEntry, api.Clock))
}
