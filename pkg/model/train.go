package model

import "time"

type BuildRecord struct {
	BuildVersion BuildVersion
	UploadedAt   time.Time
}

// BuildTrain 是某個版本所有上傳過的 build
type BuildTrain struct {
	Version string
	Builds  []BuildRecord
}

func (t *BuildTrain) BuildVersions() []BuildVersion {
	versions := make([]BuildVersion, 0, len(t.Builds))
	for _, build := range t.Builds {
		versions = append(versions, build.BuildVersion)
	}
	return versions
}
