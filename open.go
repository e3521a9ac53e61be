package authclient

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goliatone/go-auth-client/store"
)

// Session bundles what Open builds from a Config.
type Session struct {
	*Manager
	Client *Client
	Store  store.Store
}

// OpenOption customizes Open.
type OpenOption func(*openOptions)

type openOptions struct {
	clientOpts  []ClientOption
	managerOpts []ManagerOption
	logger      Logger
}

// WithClientOptions forwards options to NewClient.
func WithClientOptions(opts ...ClientOption) OpenOption {
	return func(o *openOptions) {
		o.clientOpts = append(o.clientOpts, opts...)
	}
}

// WithManagerOptions forwards options to NewManager. They are applied after
// the options derived from the Config.
func WithManagerOptions(opts ...ManagerOption) OpenOption {
	return func(o *openOptions) {
		o.managerOpts = append(o.managerOpts, opts...)
	}
}

// WithOpenLogger sets the logger shared by the client and the manager.
func WithOpenLogger(logger Logger) OpenOption {
	return func(o *openOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open validates cfg and wires a Client, a store and a Manager. Call Close
// on the returned session to release the store and any key refresher.
func Open(ctx context.Context, cfg Config, opts ...OpenOption) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := &openOptions{logger: defLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	st, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}

	decoder, stop, err := openDecoder(cfg.Verify, o.logger)
	if err != nil {
		cleanup()
		return nil, err
	}
	if stop != nil {
		closers = append(closers, func() error {
			stop()
			return nil
		})
	}

	clientOpts := append([]ClientOption{
		WithTimeout(cfg.Timeout),
		WithClientLogger(o.logger),
	}, o.clientOpts...)
	client := NewClient(cfg.Endpoint, clientOpts...)

	managerOpts := []ManagerOption{
		WithDecoder(decoder),
		WithPermittedRoles(ParseRoles(cfg.PermittedRoles)),
		WithLogger(o.logger),
	}
	if cfg.ClearUnauthorized {
		managerOpts = append(managerOpts, WithClearUnauthorized())
	}
	for _, closer := range closers {
		managerOpts = append(managerOpts, withCloser(closer))
	}
	managerOpts = append(managerOpts, o.managerOpts...)

	return &Session{
		Manager: NewManager(client, st, managerOpts...),
		Client:  client,
		Store:   st,
	}, nil
}

func openStore(ctx context.Context, cfg StoreConfig) (store.Store, func() error, error) {
	switch cfg.Driver {
	case StoreDriverMemory:
		return store.NewMemory(), nil, nil
	case StoreDriverFile:
		path := cfg.Path
		if path == "" {
			path = store.DefaultPath()
		}
		return store.NewFile(path), nil, nil
	case StoreDriverSQLite:
		path := cfg.Path
		if path == "" {
			path = filepath.Join(filepath.Dir(store.DefaultPath()), "session.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("create store directory: %w", err)
		}
		st, err := store.OpenSQLite(ctx, "file:"+path, store.WithSlot(cfg.Key))
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, st.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func openDecoder(cfg VerifyConfig, logger Logger) (ClaimDecoder, func(), error) {
	switch {
	case cfg.Secret != "":
		return NewVerifiedDecoder(HMACKeyfunc([]byte(cfg.Secret))), nil, nil
	case cfg.JWKSURL != "":
		keyFunc, stop, err := JWKSKeyfunc(cfg.JWKSURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return NewVerifiedDecoder(keyFunc), stop, nil
	default:
		return UnverifiedDecoder(), nil, nil
	}
}
