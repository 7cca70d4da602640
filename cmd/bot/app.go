package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vaspitac/helperbot/cmd/bot/config"
	"github.com/vaspitac/helperbot/cmd/bot/monitoring"
	"github.com/vaspitac/helperbot/pkg/dataaccess"
	"github.com/vaspitac/helperbot/pkg/logging"
	"github.com/vaspitac/helperbot/pkg/request"
	"github.com/vaspitac/helperbot/pkg/ticketing"
)

const (
	// PathRoot is the path for the liveness probe.
	PathRoot = "/"

	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for the health check.
	PathHealth = "/health"
)

// IApp is the interface for the application.
type IApp interface {
	// Log returns the logger.
	Log() *slog.Logger

	// Session returns the discord session.
	Session() *discordgo.Session

	// Engine returns the ticket engine.
	Engine() *ticketing.Engine

	// ConfigDal returns the guild configuration data access layer.
	ConfigDal() dataaccess.GuildConfigDal

	// CatalogDal returns the service catalog data access layer.
	CatalogDal() dataaccess.CatalogDal

	// PointsDal returns the points ledger data access layer.
	PointsDal() dataaccess.PointsDal

	// RulesDal returns the rules data access layer.
	RulesDal() dataaccess.RulesDal
}

type App struct {
	// is the logger.
	*slog.Logger

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	// eventNotifier is the channel for notifying of events.
	eventNotifier chan any

	// engine is the ticket engine.
	engine *ticketing.Engine

	configDal  dataaccess.GuildConfigDal
	catalogDal dataaccess.CatalogDal
	counterDal dataaccess.CounterDal
	pointsDal  dataaccess.PointsDal
	rulesDal   dataaccess.RulesDal

	// registeredCommands is what was registered per guild, used on
	// shutdown to unregister.
	registeredCommands map[string][]*discordgo.ApplicationCommand
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, r *mux.Router) *App {
	return &App{
		Logger:             l,
		r:                  r,
		registeredCommands: make(map[string][]*discordgo.ApplicationCommand),
	}
}

func (a *App) Run() error {
	// The data access layers need the database connection, which is only
	// established once the configuration has been parsed.
	a.configDal = dataaccess.NewGuildConfigDal()
	a.catalogDal = dataaccess.NewCatalogDal()
	a.counterDal = dataaccess.NewCounterDal()
	a.pointsDal = dataaccess.NewPointsDal()
	a.rulesDal = dataaccess.NewRulesDal()
	a.engine = ticketing.NewEngine(a.Logger, a.configDal, a.catalogDal, a.counterDal, a.pointsDal, newRosterPresenter(a))

	// Register bot.
	if err := a.RegisterBot(); err != nil {
		return fmt.Errorf("error registering bot: %w", err)
	}

	a.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.Info(fmt.Sprintf("Logged in as %s#%s", r.User.Username, r.User.Discriminator))
	})

	if err := a.RegisterDiscordHandlers(); err != nil {
		return fmt.Errorf("error registering discord handlers: %w", err)
	}

	// Start event listener.
	go a.eventListener()

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	// Commands are registered per guild, so the guild list has to come
	// from an open session.
	if err := a.registerSlashCommands(); err != nil {
		return fmt.Errorf("error registering slash commands: %w", err)
	}

	a.Info("Bot is now running.")

	a.generateServer()
	a.setupRoutes()
	a.runServer()

	// Register listener for shutdown signal.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	// Process shutdown signal.
	for sig := range c {
		a.Info("Received shutdown signal", slog.String("signal", sig.String()))
		if err := a.ShutdownHook(); err != nil {
			a.Error("Error shutting down application", slog.String(logging.KeyError, err.Error()))
		}
		os.Exit(0)
	}
	return nil
}

func (a *App) ShutdownHook() error {
	// Reset the total number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	// Unregister slash commands.
	if err := a.unregisterSlashCommands(); err != nil {
		return fmt.Errorf("error unregistering slash commands: %w", err)
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		return fmt.Errorf("error closing connection to Discord: %w", err)
	}
	return nil
}

func (a *App) RegisterBot() error {
	// Default the number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	dg, err := discordgo.New("Bot " + config.BotToken)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsAll)

	if a.eventNotifier == nil {
		// Buffered to prevent blocking the websocket reader.
		a.eventNotifier = make(chan any, 100)
	}

	dg.SetEventNotifier(a.eventNotifier)

	a.s = dg
	return nil
}

func (a *App) runServer() {
	go func() {
		a.Info("Starting monitoring server")
		if err := a.svr.ListenAndServe(); err != nil {
			a.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) setupRoutes() {
	a.r.HandleFunc(PathRoot, middlewareHttp(a, a.liveness())).Methods(http.MethodGet)
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)
	a.r.HandleFunc(PathHealth, middlewareHttp(a, a.healthCheck())).Methods(http.MethodGet)

	a.r.NotFoundHandler = request.NotFoundHandler(a.Logger)
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Logger)
}

func (a *App) generateServer() {
	a.svr = &http.Server{
		Addr:    ":" + config.MonitoringPort,
		Handler: a.r,
	}
}

func (a *App) GetJoinedGuilds() ([]*discordgo.UserGuild, error) {
	guilds, err := a.s.UserGuilds(0, "", "")
	if err != nil {
		return nil, fmt.Errorf("error getting guilds: %w", err)
	}
	return guilds, nil
}

func (a *App) RegisterDiscordHandlers() error {
	// Bot joined guild.
	a.s.AddHandler(guildJoinedHandler(a))

	// Bot left guild.
	a.s.AddHandler(guildLeaveHandler(a))

	// Interaction create handler.
	a.s.AddHandler(interactionHandler(a,
		// Slash controllers.
		map[string]slashCommandController{
			SetupCmdName:        setupCmdController,
			PanelCmdName:        panelCmdController,
			PointsCmdName:       pointsCmdController,
			LeaderboardCmdName:  leaderboardCmdController,
			RemoveHelperCmdName: removeHelperCmdController,
			RulesCmdName:        rulesCmdController,
			MigrateCmdName:      migrateCmdController,
		},
		// Component controllers, keyed by custom ID prefix.
		map[string]interactionProcessor{
			PanelServiceSelectID: panelServiceSelectHandler,
			JoinTicketButtonID:   joinTicketHandler,
			LeaveTicketButtonID:  leaveTicketHandler,
			CloseTicketButtonID:  closeTicketHandler,
			ResetConfirmButtonID: pointsResetConfirmHandler,
			ResetCancelButtonID:  pointsResetCancelHandler,
		},
		// Modal controllers, keyed by custom ID prefix.
		map[string]interactionProcessor{
			TicketModalID: ticketModalHandler,
		}))
	return nil
}

func (a *App) eventListener() {
	for e := range a.eventNotifier {
		switch t := e.(type) {
		case *discordgo.Event:
			if t.Type != "" {
				monitoring.TotalDiscordEvents.WithLabelValues(t.Type).Inc()
			} else {
				// If there is no type, then use the operation name.
				monitoring.TotalDiscordEvents.WithLabelValues(strings.ToUpper(t.Operation.String())).Inc()
			}
		default:
			a.Error("Unknown event type", slog.String("type", fmt.Sprintf("%T", e)))
			monitoring.TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	}
}

func (a *App) registerSlashCommands() error {
	// Get all guilds the bot is in.
	guilds, err := a.GetJoinedGuilds()
	if err != nil {
		return fmt.Errorf("error getting guilds: %w", err)
	}

	// Register slash commands for each guild.
	for _, g := range guilds {
		for _, cmd := range slashCommands() {
			created, err := a.Session().ApplicationCommandCreate(config.ApplicationId, g.ID, cmd)
			if err != nil {
				return fmt.Errorf("error creating %s command for guild %s: %w", cmd.Name, g.ID, err)
			}
			a.registeredCommands[g.ID] = append(a.registeredCommands[g.ID], created)
		}
	}
	return nil
}

func (a *App) unregisterSlashCommands() error {
	for guildID, cmds := range a.registeredCommands {
		for _, cmd := range cmds {
			if err := a.s.ApplicationCommandDelete(config.ApplicationId, guildID, cmd.ID); err != nil {
				return fmt.Errorf("error deleting %s command for guild %s: %w", cmd.Name, guildID, err)
			}
		}
	}
	return nil
}

// slashCommands is every command the bot registers in a guild.
func slashCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		setupCmd,
		panelCmd,
		pointsCmd,
		leaderboardCmd,
		removeHelperCmd,
		rulesCmd,
		migrateCmd,
	}
}

func (a *App) Log() *slog.Logger {
	return a.Logger
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

func (a *App) Engine() *ticketing.Engine {
	return a.engine
}

func (a *App) ConfigDal() dataaccess.GuildConfigDal {
	return a.configDal
}

func (a *App) CatalogDal() dataaccess.CatalogDal {
	return a.catalogDal
}

func (a *App) PointsDal() dataaccess.PointsDal {
	return a.pointsDal
}

func (a *App) RulesDal() dataaccess.RulesDal {
	return a.rulesDal
}
