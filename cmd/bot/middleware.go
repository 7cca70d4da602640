package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/gorilla/mux"
	"github.com/vaspitac/helperbot/cmd/bot/monitoring"
	"github.com/vaspitac/helperbot/pkg/logging"
	"github.com/vaspitac/helperbot/pkg/messages"
	"github.com/vaspitac/helperbot/pkg/request"
	"golang.org/x/time/rate"
)

// slashCommandController picks the processor for a slash command by its sub
// command name.
type slashCommandController func(a IApp, cmd string) (slashProcessor, error)

// slashProcessor is the processor for slash commands.
type slashProcessor func(a IApp, i *discordgo.InteractionCreate) error

// interactionProcessor is the processor for component and modal interactions.
type interactionProcessor func(a IApp, i *discordgo.InteractionCreate) error

type Controller func(w http.ResponseWriter, r *http.Request)

var (
	limiterMut sync.Mutex
	limiters   = make(map[string]*rate.Limiter)
)

// commandLimiter returns the limiter for a command in a guild. Each command
// may run at most once every two seconds per guild, so two members racing
// the same command do not interleave.
func commandLimiter(guildID, cmd string) *rate.Limiter {
	limiterMut.Lock()
	defer limiterMut.Unlock()

	key := guildID + ":" + cmd
	l, ok := limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(2*time.Second), 1)
		limiters[key] = l
	}
	return l
}

func middlewareHttp(a IApp, handler Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		cw := request.NewClientWriter(w)

		// Recover from any panics that occur in the handler.
		defer func() {
			if rec := recover(); rec != nil {
				a.Log().Error("Panic in handler",
					slog.String(logging.KeyError, fmt.Sprintf("%v", rec)),
					slog.String("stack", string(debug.Stack())),
				)
				cw.WriteHeader(http.StatusInternalServerError)
				if err := json.NewEncoder(cw).Encode(request.NewMessage(request.ErrInternalServer.Error())); err != nil {
					a.Log().Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
				}
			}
		}()

		var path string
		route := mux.CurrentRoute(r)
		if route != nil { // The route may be nil if the request is not routed.
			var err error
			path, err = route.GetPathTemplate()
			if err != nil {
				// An error here is only returned if the route does not define a path.
				a.Log().Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
				path = r.URL.Path
			}
		} else {
			path = r.URL.Path
		}

		defer func() {
			// Run after the request has been handled, as the status code is
			// not available until then.
			monitoring.HttpTotalRequests.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Inc()
			monitoring.HttpRequestDuration.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Observe(time.Since(now).Seconds())
		}()

		handler(cw, r)
	}
}

// customIDKey strips the argument part of a component custom ID, leaving the
// routing prefix. "ticket_modal:Grim Express" routes as "ticket_modal".
func customIDKey(id string) string {
	return strings.SplitN(id, ":", 2)[0]
}

// interactionHandler routes interactions to the registered controllers.
func interactionHandler(a IApp, slash map[string]slashCommandController, components, modals map[string]interactionProcessor) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			handleSlashInteraction(a, i, slash)
		case discordgo.InteractionMessageComponent:
			handleKeyedInteraction(a, i, customIDKey(i.MessageComponentData().CustomID), components)
		case discordgo.InteractionModalSubmit:
			handleKeyedInteraction(a, i, customIDKey(i.ModalSubmitData().CustomID), modals)
		default:
			return
		}
	}
}

func handleSlashInteraction(a IApp, i *discordgo.InteractionCreate, controllers map[string]slashCommandController) {
	data := i.ApplicationCommandData()
	a.Log().Debug("Handling interaction " + data.Name)

	controller, ok := controllers[data.Name]
	if !ok {
		a.Log().Error("No controller found for command", slog.String("command", data.Name))
		if err := respondSlashError(a, i); err != nil {
			a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
		return
	}

	if !commandLimiter(i.GuildID, data.Name).Allow() {
		if err := respondSlashEphemeral(a, i, messages.ErrCommandBusy); err != nil {
			a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
		return
	}

	sub := ""
	if len(data.Options) > 0 && data.Options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		sub = data.Options[0].Name
	}

	processor, err := controller(a, sub)
	if err != nil {
		a.Log().Error(fmt.Sprintf("Error getting processor for command %s", data.Name),
			slog.String(logging.KeyError, err.Error()))
		if err := respondSlashError(a, i); err != nil {
			a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
		return
	}

	t := time.Now().UTC()
	defer func() {
		monitoring.DiscordCommandDuration.WithLabelValues(data.Name).Observe(time.Since(t).Seconds())
	}()

	if err := processor(a, i); err != nil {
		a.Log().Error(fmt.Sprintf("Error processing command %s", data.Name),
			slog.String(logging.KeyError, err.Error()))
		if err := respondSlashError(a, i); err != nil {
			a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
		return
	}
}

func handleKeyedInteraction(a IApp, i *discordgo.InteractionCreate, key string, processors map[string]interactionProcessor) {
	a.Log().Debug("Handling interaction " + key)

	processor, ok := processors[key]
	if !ok {
		a.Log().Error("No processor found for interaction", slog.String("custom_id", key))
		if err := respondSlashError(a, i); err != nil {
			a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
		return
	}

	if err := processor(a, i); err != nil {
		a.Log().Error(fmt.Sprintf("Error processing interaction %s", key),
			slog.String(logging.KeyError, err.Error()))
		if err := respondSlashError(a, i); err != nil {
			a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
		return
	}
}
