package app

import (
	"fmt"

	accessTokenDomain "github.com/allisson/ocpi/internal/accesstoken/domain"
	accessTokenUseCase "github.com/allisson/ocpi/internal/accesstoken/usecase"
	partyUseCase "github.com/allisson/ocpi/internal/party/usecase"
	versionDomain "github.com/allisson/ocpi/internal/version/domain"
	versionHTTP "github.com/allisson/ocpi/internal/version/http"
	versionUseCase "github.com/allisson/ocpi/internal/version/usecase"
)

// AccessTokenDirectory returns the access token allow/block directory.
func (c *Container) AccessTokenDirectory() (accessTokenUseCase.Directory, error) {
	c.accessTokenDirectoryInit.Do(func() {
		var err error
		c.accessTokenDirectory, err = c.initAccessTokenDirectory()
		if err != nil {
			c.storeErr("accessTokenDirectory", err)
		}
	})
	if err := c.loadErr("accessTokenDirectory"); err != nil {
		return nil, err
	}
	return c.accessTokenDirectory, nil
}

// RemotePartyRegistry returns the remote party registry.
func (c *Container) RemotePartyRegistry() (partyUseCase.Registry, error) {
	c.remotePartyRegistryInit.Do(func() {
		var err error
		c.remotePartyRegistry, err = c.initRemotePartyRegistry()
		if err != nil {
			c.storeErr("remotePartyRegistry", err)
		}
	})
	if err := c.loadErr("remotePartyRegistry"); err != nil {
		return nil, err
	}
	return c.remotePartyRegistry, nil
}

// VersionDirectory returns the directory of served OCPI versions.
func (c *Container) VersionDirectory() (versionUseCase.Directory, error) {
	c.versionDirectoryInit.Do(func() {
		var err error
		c.versionDirectory, err = c.initVersionDirectory()
		if err != nil {
			c.storeErr("versionDirectory", err)
		}
	})
	if err := c.loadErr("versionDirectory"); err != nil {
		return nil, err
	}
	return c.versionDirectory, nil
}

// VersionHandler returns the HTTP handler for version discovery.
func (c *Container) VersionHandler() (*versionHTTP.VersionHandler, error) {
	c.versionHandlerInit.Do(func() {
		var err error
		c.versionHandler, err = c.initVersionHandler()
		if err != nil {
			c.storeErr("versionHandler", err)
		}
	})
	if err := c.loadErr("versionHandler"); err != nil {
		return nil, err
	}
	return c.versionHandler, nil
}

// initAccessTokenDirectory creates the directory, persisted to its own file
// when enabled.
func (c *Container) initAccessTokenDirectory() (accessTokenUseCase.Directory, error) {
	defaultStatus, err := accessTokenDomain.ParseAccessStatus(c.config.AccessTokenDefaultStatus)
	if err != nil {
		return nil, fmt.Errorf("invalid ACCESS_TOKEN_DEFAULT_STATUS: %w", err)
	}

	var log accessTokenUseCase.CommandLog
	if c.config.AccessTokensPersist {
		commandLog, err := c.CommandLog()
		if err != nil {
			return nil, fmt.Errorf("failed to get command log for access token directory: %w", err)
		}
		log = commandLog
	}

	baseDirectory, err := accessTokenUseCase.NewDirectory(accessTokenUseCase.Config{
		DefaultStatus: defaultStatus,
		File:          c.config.AccessTokensFile,
	}, log, c.Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to create access token directory: %w", err)
	}

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for access token directory: %w", err)
		}
		return accessTokenUseCase.NewDirectoryWithMetrics(baseDirectory, businessMetrics), nil
	}

	return baseDirectory, nil
}

// initRemotePartyRegistry creates the registry on top of the command log.
func (c *Container) initRemotePartyRegistry() (partyUseCase.Registry, error) {
	log, err := c.CommandLog()
	if err != nil {
		return nil, fmt.Errorf("failed to get command log for remote party registry: %w", err)
	}

	baseRegistry := partyUseCase.NewRegistry(log, c.config.RemotePartiesFile, c.Logger())

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for remote party registry: %w", err)
		}
		return partyUseCase.NewRegistryWithMetrics(baseRegistry, businessMetrics), nil
	}

	return baseRegistry, nil
}

// initVersionDirectory builds the served versions from VERSIONS and VERSIONS_BASE_URL.
func (c *Container) initVersionDirectory() (versionUseCase.Directory, error) {
	ids := c.config.VersionIDs()
	versions := make([]versionDomain.VersionInformation, 0, len(ids))
	for _, id := range ids {
		versions = append(versions, versionDomain.VersionInformation{
			ID:  id,
			URL: c.config.VersionURL(id),
		})
	}

	directory, err := versionUseCase.NewDirectory(versions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create version directory: %w", err)
	}
	return directory, nil
}

// initVersionHandler creates the version discovery handler.
func (c *Container) initVersionHandler() (*versionHTTP.VersionHandler, error) {
	directory, err := c.VersionDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get version directory for version handler: %w", err)
	}
	return versionHTTP.NewVersionHandler(directory, c.Logger()), nil
}
