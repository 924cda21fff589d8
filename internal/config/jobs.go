package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Job is one recurring capture in a watch-mode jobs file.
type Job struct {
	Name            string    `yaml:"name"`
	Region          JobRegion `yaml:"region"`
	Quality         int       `yaml:"quality"`          // 0 inherits the config default
	IntervalSeconds int       `yaml:"interval_seconds"` // 0 inherits watch_interval_seconds
	Upload          bool      `yaml:"upload"`
	SkipUnchanged   bool      `yaml:"skip_unchanged"`
	Retention       int       `yaml:"retention"` // captures to keep; 0 keeps everything
}

// JobRegion mirrors a desktop-coordinate rectangle in the jobs file.
type JobRegion struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type jobsFile struct {
	Jobs []Job `yaml:"jobs"`
}

// LoadJobs reads and validates a watch-mode jobs file.
func LoadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f jobsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse jobs file: %w", err)
	}
	if len(f.Jobs) == 0 {
		return nil, fmt.Errorf("jobs file %s declares no jobs", path)
	}

	seen := make(map[string]bool, len(f.Jobs))
	for i, j := range f.Jobs {
		if err := j.validate(); err != nil {
			return nil, fmt.Errorf("job %d: %w", i, err)
		}
		if seen[j.Name] {
			return nil, fmt.Errorf("duplicate job name %q", j.Name)
		}
		seen[j.Name] = true
	}
	return f.Jobs, nil
}

func (j Job) validate() error {
	if j.Name == "" {
		return fmt.Errorf("missing name")
	}
	if j.Region.Width <= 0 || j.Region.Height <= 0 {
		return fmt.Errorf("%s: region %dx%d has no area", j.Name, j.Region.Width, j.Region.Height)
	}
	if j.Quality < 0 || j.Quality > 100 {
		return fmt.Errorf("%s: quality %d outside 0-100", j.Name, j.Quality)
	}
	if j.IntervalSeconds < 0 {
		return fmt.Errorf("%s: negative interval", j.Name)
	}
	if j.Retention < 0 {
		return fmt.Errorf("%s: negative retention", j.Name)
	}
	return nil
}

// Interval returns the job's cadence, falling back to def when the
// file leaves it unset.
func (j Job) Interval(def time.Duration) time.Duration {
	if j.IntervalSeconds <= 0 {
		return def
	}
	return time.Duration(j.IntervalSeconds) * time.Second
}
