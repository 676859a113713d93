package core

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"rwm/internal/domain"
	"rwm/internal/linker"
	"rwm/internal/source"
	"rwm/internal/source/local"
	"rwm/internal/source/workshop"
	"rwm/internal/steam"
	"rwm/internal/storage/cache"
	"rwm/internal/storage/config"
	"rwm/internal/storage/db"

	"github.com/charmbracelet/log"
)

// ServiceConfig holds configuration for the core service
type ServiceConfig struct {
	ConfigDir   string       // Directory for configuration files
	HTTPClient  *http.Client // Optional
	WorkshopURL string       // Optional browse page override
	Logger      *log.Logger  // Optional
}

// Service wires configuration, storage and catalogs for the CLI
type Service struct {
	config     *config.Config
	db         *db.DB
	cache      *cache.Cache
	registry   *source.Registry
	httpClient *http.Client
	logger     *log.Logger

	configDir    string
	gameDetected bool
}

// NewService creates a new core service instance
func NewService(cfg ServiceConfig) (*Service, error) {
	appConfig, err := config.Load(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	database, err := db.New(filepath.Join(config.DataDir(cfg.ConfigDir), db.FileName))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Service{
		config:     appConfig,
		db:         database,
		registry:   source.NewRegistry(),
		httpClient: cfg.HTTPClient,
		logger:     loggerOrDiscard(cfg.Logger),
		configDir:  cfg.ConfigDir,
	}

	if s.config.GamePath == "" {
		if path := DetectGamePath(nil); path != "" {
			s.logger.Debug("using detected game path", "path", path)
			s.config.GamePath = path
			s.gameDetected = true
		}
	}

	s.cache = cache.New(s.WorkshopRoot())

	var catalog source.Catalog = workshop.New(cfg.HTTPClient, cfg.WorkshopURL)
	catalog = workshop.NewCached(catalog, database, s.config.Catalog.CacheTTL, s.logger)
	s.registry.Register(catalog)
	if modsDir, err := s.config.ModsPath(); err == nil {
		s.registry.Register(local.New(modsDir, s.logger))
	}

	return s, nil
}

// DetectGamePath looks for RimWorld in the Steam libraries, then in the
// usual install locations. Returns "" when nothing is found.
func DetectGamePath(getenv func(string) string) string {
	if path, err := steam.FindApp(steam.Roots(getenv), domain.WorkshopAppID); err == nil {
		return path
	}
	for _, p := range config.DefaultGamePaths() {
		p = config.ExpandHome(p)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p
		}
	}
	return ""
}

// Close releases resources held by the service
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Config returns the loaded configuration
func (s *Service) Config() *config.Config {
	return s.config
}

// SaveConfig writes the configuration back to the config directory. A
// detected game path is only persisted once the user sets it.
func (s *Service) SaveConfig() error {
	if s.gameDetected {
		detected := s.config.GamePath
		s.config.GamePath = ""
		defer func() { s.config.GamePath = detected }()
	}
	return s.config.Save(s.configDir)
}

// SetConfig changes one setting in memory. Setting the game path makes it
// persist even when it matches the detected one.
func (s *Service) SetConfig(key, value string) error {
	if err := s.config.Set(key, value); err != nil {
		return err
	}
	if config.CanonicalKey(key) == "game_path" {
		s.gameDetected = false
	}
	return nil
}

// GameDetected reports whether the game path came from detection
func (s *Service) GameDetected() bool {
	return s.gameDetected
}

// ConfigDir returns the configuration directory
func (s *Service) ConfigDir() string {
	return s.configDir
}

// DB returns the database
func (s *Service) DB() *db.DB {
	return s.db
}

// Cache returns the view of steamcmd's workshop content directory
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

// Registry returns the catalog registry
func (s *Service) Registry() *source.Registry {
	return s.registry
}

// Workshop returns the remote catalog
func (s *Service) Workshop() source.Catalog {
	c, err := s.registry.Get("workshop")
	if err != nil {
		return nil
	}
	return c
}

// LocalMods returns the catalog over the game's Mods directory
func (s *Service) LocalMods() (*local.Local, error) {
	modsDir, err := s.config.ModsPath()
	if err != nil {
		return nil, err
	}
	return local.New(modsDir, s.logger), nil
}

// SteamCmdPath returns the configured steamcmd launcher
func (s *Service) SteamCmdPath() string {
	if s.config.SteamCmdPath != "" {
		return config.ExpandHome(s.config.SteamCmdPath)
	}
	return config.DefaultSteamCmdPath(s.configDir)
}

// WorkshopRoot returns the directory steamcmd downloads content under
func (s *Service) WorkshopRoot() string {
	if s.config.WorkshopDir != "" {
		return config.ExpandHome(s.config.WorkshopDir)
	}
	return filepath.Dir(s.SteamCmdPath())
}

// RetryPolicy builds the download retry policy from configuration
func (s *Service) RetryPolicy(onRetry func(attempt int, reason string)) domain.RetryPolicy {
	return domain.RetryPolicy{
		MaxAttempts:    s.config.Download.MaxAttempts,
		AttemptTimeout: s.config.Download.AttemptTimeout,
		OnRetry:        onRetry,
	}
}

// SteamCmd returns an executor for the configured steamcmd. The process runs
// with HOME set to the config directory, like the launcher expects.
func (s *Service) SteamCmd(onRetry func(attempt int, reason string)) *SteamCmd {
	return NewSteamCmd(SteamCmdConfig{
		Path:    s.SteamCmdPath(),
		HomeDir: s.configDir,
		Policy:  s.RetryPolicy(onRetry),
		Logger:  s.logger,
	})
}

// Resolver returns a resolver over the workshop catalog
func (s *Service) Resolver(chooser Chooser) *CatalogResolver {
	return &CatalogResolver{
		Catalog: s.Workshop(),
		Chooser: chooser,
		Items:   s.db,
		Record:  s.db,
		Logger:  s.logger,
	}
}

// Deployer returns a deployer into the game's Mods directory
func (s *Service) Deployer() (*Deployer, error) {
	modsDir, err := s.config.ModsPath()
	if err != nil {
		return nil, err
	}
	return NewDeployer(s.cache, linker.New(s.config.LinkMethod), modsDir, s.db, s.logger), nil
}

// InstallOptions tunes the installer built by Service.Installer
type InstallOptions struct {
	Chooser   Chooser
	OnRetry   func(attempt int, reason string)
	OnOutcome func(domain.InstallOutcome)
	Deploy    bool // Link downloads into the game's Mods directory
}

// Installer assembles an installer from configuration
func (s *Service) Installer(opts InstallOptions) (*Installer, error) {
	cfg := InstallerConfig{
		Resolver:   s.Resolver(opts.Chooser),
		Downloader: s.SteamCmd(opts.OnRetry),
		Inspector:  local.NewInspector(s.cache),
		OnOutcome:  opts.OnOutcome,
		Logger:     s.logger,
	}
	if opts.Deploy {
		d, err := s.Deployer()
		if err != nil {
			return nil, err
		}
		cfg.Deployer = d
	}
	return NewInstaller(cfg), nil
}

// InstallHooks returns the configured install hooks, or nil when none are
// set or hooks are disabled
func (s *Service) InstallHooks(enabled bool) *InstallHooks {
	if !enabled {
		return nil
	}
	modsDir, _ := s.config.ModsPath()
	return NewInstallHooks(NewHookRunner(s.config.HookTimeout), s.config.Hooks.Install, s.config.GamePath, modsDir, s.logger)
}

// Bootstrapper returns a steamcmd installer targeting the configured path
func (s *Service) Bootstrapper() *Bootstrapper {
	return NewBootstrapper(s.httpClient, SteamCmdArchiveURL, s.logger)
}
