package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleywu/winroute"
	"github.com/wesleywu/winroute/internal/config"
	"github.com/wesleywu/winroute/internal/logger"
	"github.com/wesleywu/winroute/internal/network"
	"github.com/wesleywu/winroute/internal/routing/batch"
)

var (
	version = "1.0.0"

	configFile  string
	verboseMode bool
	jsonOutput  bool

	familyFlag  string
	gatewayFlag string
	ifaceFlag   uint32
	ifnameFlag  string
	metricFlag  uint32

	routeFile   string
	deleteMode  bool
	concurrency int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "winroute",
		Short: "Windows routing table manager",
		Long:  `Add, delete, list and watch IPv4/IPv6 routes in the Windows routing table.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List routes",
		Args:  cobra.NoArgs,
		Run:   listRoutes,
	}
	listCmd.Flags().StringVar(&familyFlag, "family", "", "Address family: 4, 6 or all")

	addCmd := &cobra.Command{
		Use:   "add <cidr>",
		Short: "Add a route",
		Args:  cobra.ExactArgs(1),
		Run:   addRoute,
	}
	deleteCmd := &cobra.Command{
		Use:   "delete <cidr>",
		Short: "Delete a route",
		Args:  cobra.ExactArgs(1),
		Run:   deleteRoute,
	}
	for _, c := range []*cobra.Command{addCmd, deleteCmd} {
		c.Flags().StringVar(&gatewayFlag, "gateway", "", "Next hop address")
		c.Flags().Uint32Var(&ifaceFlag, "interface", 0, "Interface index (default: best interface)")
		c.Flags().StringVar(&ifnameFlag, "ifname", "", "Interface name, instead of --interface")
		c.MarkFlagsMutuallyExclusive("interface", "ifname")
	}
	addCmd.Flags().Uint32Var(&metricFlag, "metric", 0, "Route metric offset")

	defaultCmd := &cobra.Command{
		Use:   "default",
		Short: "Show the default route",
		Args:  cobra.NoArgs,
		Run:   showDefault,
	}

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Print route changes until interrupted",
		Args:  cobra.NoArgs,
		Run:   monitorRoutes,
	}
	monitorCmd.Flags().StringVar(&familyFlag, "family", "", "Address family: 4, 6 or all")

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Add (or delete) every route in a file",
		Long:  `Apply a YAML route file (.yaml/.yml) or a plain list with one "<cidr> [gateway]" per line.`,
		Args:  cobra.NoArgs,
		Run:   applyRoutes,
	}
	applyCmd.Flags().StringVarP(&routeFile, "file", "f", "", "Route file")
	applyCmd.Flags().BoolVar(&deleteMode, "delete", false, "Delete the listed routes instead of adding them")
	applyCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Concurrent operations (default from config)")
	_ = applyCmd.MarkFlagRequired("file")

	interfacesCmd := &cobra.Command{
		Use:   "interfaces",
		Short: "List local interfaces and their indexes",
		Args:  cobra.NoArgs,
		Run:   listInterfaces,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run:   showVersion,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path (TOML)")
	rootCmd.PersistentFlags().BoolVarP(&verboseMode, "verbose", "v", false, "Verbose mode (debug level logging)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "JSON output")

	rootCmd.AddCommand(listCmd, addCmd, deleteCmd, defaultCmd, monitorCmd, applyCmd, interfacesCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *logger.Logger) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if verboseMode {
		cfg.LogLevel = "debug"
	}
	if jsonOutput {
		cfg.JSONOutput = true
	}
	if familyFlag != "" {
		if _, err := winroute.ParseFamily(familyFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --family: %v\n", err)
			os.Exit(1)
		}
		cfg.Family = familyFlag
	}

	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel)
	if cfg.Path() != "" {
		log.ConfigLoaded(cfg.Path(), cfg.LogLevel, cfg.AddressFamily().String())
	}
	return cfg, log
}

func openManager(cfg *config.Config, log *logger.Logger) *winroute.RouteManager {
	rm, err := winroute.New(winroute.WithLogger(log.Logger), winroute.WithFamily(cfg.AddressFamily()))
	if err != nil {
		fail(log, "Failed to open routing table", err)
	}
	return rm
}

func fail(log *logger.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	if errors.Is(err, winroute.ErrPermission) {
		fmt.Fprintln(os.Stderr, "Administrator privileges are required for route changes")
	}
	os.Exit(1)
}

func routeFromArgs(cmd *cobra.Command, cidr string) (winroute.Route, error) {
	route, err := winroute.ParseRoute(cidr)
	if err != nil {
		return route, err
	}
	if gatewayFlag != "" {
		gw, err := netip.ParseAddr(gatewayFlag)
		if err != nil {
			return route, fmt.Errorf("invalid gateway %q: %w", gatewayFlag, err)
		}
		route = route.WithGateway(gw)
	}
	switch {
	case cmd.Flags().Changed("interface"):
		route = route.WithInterface(ifaceFlag)
	case ifnameFlag != "":
		iface, err := network.GetInterfaceByName(ifnameFlag)
		if err != nil {
			return route, err
		}
		route = route.WithInterface(iface.Index)
	}
	if f := cmd.Flags().Lookup("metric"); f != nil && f.Changed {
		route = route.WithMetric(metricFlag)
	}
	return route, route.Validate()
}

func output(cfg *config.Config, v fmt.Stringer) {
	if cfg.JSONOutput {
		if err := json.NewEncoder(os.Stdout).Encode(v); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
		}
		return
	}
	fmt.Println(v.String())
}

func listRoutes(_ *cobra.Command, _ []string) {
	cfg, log := loadConfig()
	rm := openManager(cfg, log)
	defer rm.Close()

	routes, err := rm.Routes()
	if err != nil {
		fail(log, "Failed to list routes", err)
	}
	if cfg.JSONOutput {
		if err := json.NewEncoder(os.Stdout).Encode(routes); err != nil {
			fail(log, "Failed to encode routes", err)
		}
		return
	}
	names := network.Names()
	for _, r := range routes {
		if idx, ok := r.Interface(); ok && names[idx] != "" {
			fmt.Printf("%s (%s)\n", r, names[idx])
			continue
		}
		fmt.Println(r)
	}
}

func listInterfaces(_ *cobra.Command, _ []string) {
	cfg, log := loadConfig()
	interfaces, err := network.GetNetworkInterfaces()
	if err != nil {
		fail(log, "Failed to list interfaces", err)
	}
	if cfg.JSONOutput {
		if err := json.NewEncoder(os.Stdout).Encode(interfaces); err != nil {
			fail(log, "Failed to encode interfaces", err)
		}
		return
	}
	for _, iface := range interfaces {
		state := "down"
		if iface.IsUp {
			state = "up"
		}
		fmt.Printf("%3d  %-24s %-4s mtu %-5d %v\n", iface.Index, iface.Name, state, iface.MTU, iface.Addresses(cfg.AddressFamily()))
	}
}

func addRoute(cmd *cobra.Command, args []string) {
	mutateRoute(cmd, args[0], "add")
}

func deleteRoute(cmd *cobra.Command, args []string) {
	mutateRoute(cmd, args[0], "delete")
}

func mutateRoute(cmd *cobra.Command, cidr, action string) {
	cfg, log := loadConfig()
	route, err := routeFromArgs(cmd, cidr)
	if err != nil {
		fail(log, "Invalid route", err)
	}

	rm := openManager(cfg, log)
	defer rm.Close()

	if action == "add" {
		err = rm.AddRoute(route)
	} else {
		err = rm.DeleteRoute(route)
	}
	if err != nil {
		rm.Close()
		fail(log, fmt.Sprintf("Failed to %s route", action), err)
	}
	log.Info("Route "+action+" completed", "route", route.String())
}

func showDefault(_ *cobra.Command, _ []string) {
	cfg, log := loadConfig()
	rm := openManager(cfg, log)
	defer rm.Close()

	route, err := rm.DefaultRoute()
	if err != nil {
		rm.Close()
		fail(log, "Failed to find default route", err)
	}
	output(cfg, route)
}

func applyRoutes(_ *cobra.Command, _ []string) {
	cfg, log := loadConfig()
	routes, err := config.LoadRouteFile(routeFile)
	if err != nil {
		fail(log, "Failed to load route file", err)
	}
	if concurrency <= 0 {
		concurrency = cfg.Concurrency
	}

	rm := openManager(cfg, log)
	defer rm.Close()

	action, op := "add", rm.AddRoute
	if deleteMode {
		action, op = "delete", rm.DeleteRoute
	}
	log.Info("Applying route file", "file", routeFile, "routes", len(routes), "action", action)

	if err := batch.Process(action, routes, op, concurrency, log); err != nil {
		rm.Close()
		fail(log, "Some routes failed", err)
	}
	fmt.Printf("%d routes applied (%s)\n", len(routes), action)
}

func monitorRoutes(_ *cobra.Command, _ []string) {
	cfg, log := loadConfig()
	rm := openManager(cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub := rm.SubscribeRouteChange()
	go pollLoop(ctx, rm, cfg, log)

	for {
		ev, err := sub.RecvContext(ctx)
		if err != nil {
			break
		}
		output(cfg, ev)
	}

	stats := rm.Stats()
	if err := rm.Close(); err != nil {
		log.Warn("Failed to close route manager", "error", err)
	}
	log.Performance("monitor", stats.Map())
}

// pollLoop drives the manager until ctx is cancelled or the manager closes.
// A failed poll leaves the notification Idle; the next call re-arms it.
func pollLoop(ctx context.Context, rm *winroute.RouteManager, cfg *config.Config, log *logger.Logger) {
	cycles := 0
	for {
		err := rm.PollContext(ctx)
		switch {
		case err == nil:
			cycles++
			if cfg.StatsEvery > 0 && cycles%cfg.StatsEvery == 0 {
				log.Performance("monitor", rm.Stats().Map())
			}
		case ctx.Err() != nil, errors.Is(err, winroute.ErrHandleClosed):
			return
		default:
			log.Warn("Route poll failed, retrying", "error", err, "state", rm.State().String())
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}

func showVersion(_ *cobra.Command, _ []string) {
	fmt.Printf("winroute v%s\n", version)
	fmt.Printf("Runtime: %s\n", runtime.Version())
	fmt.Printf("Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
