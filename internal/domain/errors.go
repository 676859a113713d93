package domain

import "errors"

var (
	ErrModNotFound        = errors.New("mod not found")
	ErrInvalidCandidate   = errors.New("invalid candidate record")
	ErrResolution         = errors.New("could not resolve mod")
	ErrNoCandidates       = errors.New("no matching mods found")
	ErrAmbiguous          = errors.New("query matches more than one mod")
	ErrDownloadFailed     = errors.New("download failed")
	ErrDownloadExhausted  = errors.New("download attempts exhausted")
	ErrDeployFailed       = errors.New("deploy failed")
	ErrSpawn              = errors.New("could not execute steamcmd")
	ErrGameNotConfigured  = errors.New("game path not configured")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrCatalogParse       = errors.New("malformed catalog page")
	ErrSelectionCancelled = errors.New("selection cancelled")
	ErrDependencyLoop     = errors.New("circular dependency detected")
)
