// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/rpcbridge/internal/log"
	"github.com/btcsuite/rpcbridge/rpcclient"
	flags "github.com/jessevdk/go-flags"
)

const (
	defaultRPCBind     = "127.0.0.1"
	defaultLogLevel    = "info"
	defaultLogFilename = "rpcbridge.log"

	defaultMainNetPort = "51735"
	defaultTestNetPort = "51935"
)

// ErrShowVersion is returned by Load when the version flag was given.  The
// caller is expected to print the version and stop.
var ErrShowVersion = errors.New("version requested")

// Config defines the configuration options for the bridge.
//
// See Load for details on the configuration load process.
type Config struct {
	ShowVersion bool          `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile  string        `short:"C" long:"configfile" description:"Path to configuration file"`
	AppName     string        `long:"appname" description:"Name of the daemon, used to find its data directory"`
	DataDir     string        `short:"b" long:"datadir" description:"Daemon data directory holding the RPC cookie"`
	RPCUser     string        `short:"u" long:"rpcuser" description:"RPC username"`
	RPCPassword string        `short:"P" long:"rpcpassword" default-mask:"-" description:"RPC password"`
	RPCBind     string        `long:"rpcbind" description:"Address the daemon's RPC server listens on"`
	RPCPort     string        `long:"rpcport" description:"Port of the daemon's RPC server (default: 51735, testnet: 51935)"`
	RPCCookie   string        `long:"rpccookiefile" description:"Path to the RPC cookie file"`
	RPCCert     string        `short:"c" long:"rpccert" description:"RPC server certificate chain for validation"`
	TLS         bool          `long:"tls" description:"Connect to the RPC server over TLS"`
	TestNet     bool          `long:"testnet" description:"Connect to testnet"`
	Proxy       string        `long:"proxy" description:"Connect via SOCKS5 proxy (eg. 127.0.0.1:9050)"`
	ProxyUser   string        `long:"proxyuser" description:"Username for proxy server"`
	ProxyPass   string        `long:"proxypass" default-mask:"-" description:"Password for proxy server"`
	Timeout     time.Duration `long:"timeout" description:"Time to wait for each RPC reply.  Valid time units are {ms, s, m}"`
	DebugLevel  string        `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	LogDir      string        `long:"logdir" description:"Directory to log output, logs only to stdout when empty"`
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = strings.Replace(path, "~", homeDir, 1)
		}
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// rpcAddress joins bind and port, picking the default port of the selected
// network when none is given.  A port already present in bind wins.
func rpcAddress(bind, port string, testNet bool) string {
	if _, _, err := net.SplitHostPort(bind); err == nil {
		return bind
	}

	if port == "" {
		port = defaultMainNetPort
		if testNet {
			port = defaultTestNetPort
		}
	}
	return net.JoinHostPort(strings.Trim(bind, "[]"), port)
}

// Load initializes and parses the config using a config file and the passed
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in functioning properly without any config settings
// while still allowing the user to override settings with config files and
// command line options.  Command line options always take precedence.
func Load(args []string) (*Config, []string, error) {
	// Default config.
	cfg := Config{
		AppName:    rpcclient.DefaultAppName,
		RPCBind:    defaultRPCBind,
		Timeout:    rpcclient.DefaultTimeout,
		DebugLevel: defaultLogLevel,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.  Any errors aside from the
	// help message can be ignored here since they will be caught by the
	// final parse below.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			return nil, nil, err
		}
	}

	if preCfg.ShowVersion {
		return nil, nil, ErrShowVersion
	}

	// Load additional config from file.
	parser := flags.NewParser(&cfg, flags.PassDoubleDash|flags.HelpFlag)
	if preCfg.ConfigFile != "" {
		err := flags.NewIniParser(parser).ParseFile(
			cleanAndExpandPath(preCfg.ConfigFile))
		if err != nil {
			return nil, nil, fmt.Errorf("unable to load config "+
				"file: %w", err)
		}
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	if !log.ValidLogLevel(cfg.DebugLevel) {
		return nil, nil, fmt.Errorf("the specified debug level [%v] is "+
			"invalid", cfg.DebugLevel)
	}

	if cfg.Timeout <= 0 {
		return nil, nil, fmt.Errorf("the timeout must be positive, "+
			"got %v", cfg.Timeout)
	}

	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.RPCCookie = cleanAndExpandPath(cfg.RPCCookie)
	cfg.RPCCert = cleanAndExpandPath(cfg.RPCCert)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)

	// Initialize log rotation.  After log rotation has been initialized,
	// the logger variables may be used.
	if cfg.LogDir != "" {
		err := log.InitLogRotator(filepath.Join(cfg.LogDir,
			defaultLogFilename))
		if err != nil {
			return nil, nil, err
		}
	}
	log.SetLogLevels(cfg.DebugLevel)

	return &cfg, remainingArgs, nil
}

// ConnConfig returns the RPC client configuration described by cfg.
func (cfg *Config) ConnConfig() (*rpcclient.ConnConfig, error) {
	connCfg := &rpcclient.ConnConfig{
		Host:       rpcAddress(cfg.RPCBind, cfg.RPCPort, cfg.TestNet),
		User:       cfg.RPCUser,
		Pass:       cfg.RPCPassword,
		CookiePath: cfg.RPCCookie,
		DataDir:    cfg.DataDir,
		AppName:    cfg.AppName,
		TestNet:    cfg.TestNet,
		EnableTLS:  cfg.TLS,
		Proxy:      cfg.Proxy,
		ProxyUser:  cfg.ProxyUser,
		ProxyPass:  cfg.ProxyPass,
		Timeout:    cfg.Timeout,
	}

	if cfg.TLS && cfg.RPCCert != "" {
		pem, err := os.ReadFile(cfg.RPCCert)
		if err != nil {
			return nil, err
		}
		connCfg.Certificates = pem
	}

	return connCfg, nil
}
