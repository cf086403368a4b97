package core

import "photobox/internal/report"

// writeReport reads both timestamp records and renders index.html. A
// rendering error is logged and returned for the summary only.
func (s *Session) writeReport() (Timestamps, string, error) {
	s.logger.Info("core: index file generation started", "template", s.cfg.Template())

	ts := ReadTimestamps(s.layout, s.logger)
	data := report.Data{
		Pictures:   Slugs(s.jobs),
		Timestamps: report.Timestamps{Current: ts.Current, Last: ts.Last},
	}

	path := s.layout.Index()
	if err := report.Write(path, s.cfg.Template(), data); err != nil {
		s.logger.Error("core: cannot write index file", "path", path, "error", err)
		return ts, "", err
	}
	s.logger.Info("core: created index file", "path", path)
	return ts, path, nil
}
