package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"streamliner/internal/archive"
	"streamliner/internal/config"
	"streamliner/internal/dispatch"
	"streamliner/internal/extract"
	"streamliner/internal/httpclient"
	"streamliner/internal/provider"
)

// session holds everything one invocation shares.
type session struct {
	cfg        config.AppConfig
	logger     *log.Logger
	client     *httpclient.Client
	dispatcher *dispatch.Dispatcher
	db         *sql.DB
}

func (s *session) runner() archive.Runner {
	if s.db == nil {
		return s.dispatcher
	}
	return &archive.Recorder{Runner: s.dispatcher, DB: s.db, Logger: s.logger}
}

func (s *session) extractor() *extract.Extractor {
	return &extract.Extractor{Fetcher: s.client, Logger: s.logger}
}

func (s *session) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func newSession(cfg config.AppConfig, logger *log.Logger) (*session, error) {
	client := httpclient.New(time.Duration(cfg.HTTPTimeoutSec)*time.Second, cfg.UserAgent)
	s := &session{
		cfg:        cfg,
		logger:     logger,
		client:     client,
		dispatcher: dispatch.New(adapters(cfg, client, logger), logger),
	}
	if cfg.ArchivePath != "" {
		db, err := archive.Open(cfg.ArchivePath)
		if err != nil {
			return nil, fmt.Errorf("failed opening the archive: %w", err)
		}
		if err := archive.InitSchema(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed initializing the archive: %w", err)
		}
		s.db = db
	}
	return s, nil
}

func adapters(cfg config.AppConfig, client *httpclient.Client, logger *log.Logger) dispatch.Adapters {
	ghHeaders := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if cfg.GitHub.Token != "" {
		ghHeaders["Authorization"] = "Bearer " + cfg.GitHub.Token
	}
	glHeaders := map[string]string{}
	if cfg.GitLab.Token != "" {
		glHeaders["PRIVATE-TOKEN"] = cfg.GitLab.Token
	}

	return dispatch.Adapters{
		GitHub: &provider.GitHub{
			API:     client.Pager(ghHeaders, cfg.MaxPages),
			BaseURL: cfg.GitHub.APIURL,
			Logger:  logger,
		},
		GitLab: &provider.GitLab{
			API:     client.Pager(glHeaders, cfg.MaxPages),
			BaseURL: cfg.GitLab.APIURL,
			Logger:  logger,
		},
		Feed: &provider.Feed{Fetcher: client, Logger: logger},
		Page: &provider.Page{Fetcher: client, Logger: logger},
	}
}
