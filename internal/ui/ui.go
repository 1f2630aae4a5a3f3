// Package ui is the desktop window of hostspin.
package ui

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gioui.org/app"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"example.com/hostspin/internal/config"
	"example.com/hostspin/internal/filedialog"
	"example.com/hostspin/internal/ui/session"
)

// Run opens the window and blocks until it is closed.
func Run(cfg *config.Config) {
	go func() {
		w := new(app.Window)
		w.Option(
			app.Title("hostspin"),
			app.Size(unit.Dp(900), unit.Dp(640)),
		)
		if err := loop(w, cfg); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
}

type widgets struct {
	sourceEd widget.Editor
	hostsEd  widget.Editor

	hostname widget.Bool
	backup   widget.Bool
	dryRun   widget.Bool

	startBtn   widget.Clickable
	stopBtn    widget.Clickable
	restoreBtn widget.Clickable
	pickSource widget.Clickable
	pickHosts  widget.Clickable

	tab           widget.Enum
	tabResultsBtn widget.Clickable
	tabLogBtn     widget.Clickable
	tabPreviewBtn widget.Clickable
	tabConfigBtn  widget.Clickable

	settingsList layout.List
	resultsList  layout.List

	logEd     widget.Editor
	previewEd widget.Editor
}

func (ws *widgets) options() session.Options {
	return session.Options{
		SourceURL: strings.TrimSpace(ws.sourceEd.Text()),
		HostsPath: strings.TrimSpace(ws.hostsEd.Text()),
		Hostname:  ws.hostname.Value,
		Backup:    ws.backup.Value,
		DryRun:    ws.dryRun.Value,
	}
}

type msgPicked struct {
	target *widget.Editor
	path   string
	err    error
}

func loop(w *app.Window, cfg *config.Config) error {
	th := newTheme()
	ctl := session.NewController(cfg, w.Invalidate)
	defer ctl.Close()

	var (
		ws    widgets
		st    session.State
		shown struct{ log, diff string }
	)
	defaults := ctl.Defaults()
	ws.sourceEd.SingleLine = true
	ws.sourceEd.SetText(defaults.SourceURL)
	ws.hostsEd.SingleLine = true
	ws.hostsEd.SetText(defaults.HostsPath)
	ws.hostname.Value = defaults.Hostname
	ws.backup.Value = defaults.Backup
	ws.logEd.ReadOnly = true
	ws.previewEd.ReadOnly = true
	ws.settingsList.Axis = layout.Vertical
	ws.resultsList.Axis = layout.Vertical
	ws.tab.Value = "results"

	start := func() {
		if ctl.Running() {
			if err := ctl.RunNow(); err != nil {
				st.AppendLog(err.Error(), time.Now())
			}
			return
		}
		if err := ctl.Start(ws.options()); err != nil {
			st.AppendLog("cannot start: "+err.Error(), time.Now())
			return
		}
		st.AppendLog(fmt.Sprintf("scheduler started, every %s", cfg.Interval.D()), time.Now())
	}
	stop := func() {
		ctl.Stop()
		st.AppendLog("scheduler stopped", time.Now())
	}
	picked := make(chan msgPicked, 1)
	browse := func(target *widget.Editor, title string, filters []filedialog.Filter) {
		req := filedialog.Request{Title: title, Current: strings.TrimSpace(target.Text()), Filters: filters}
		go func() {
			p, err := filedialog.OpenFile(req)
			picked <- msgPicked{target: target, path: p, err: err}
			w.Invalidate()
		}()
	}
	restore := func() {
		if err := ctl.Restore(st.LastBackup, ws.options().HostsPath); err != nil {
			st.AppendLog("restore failed: "+err.Error(), time.Now())
		}
	}

	// one cycle right away, then the periodic ones
	start()

	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
		drain:
			for {
				select {
				case m := <-ctl.Messages():
					st.Handle(m, time.Now())
				case m := <-picked:
					switch {
					case errors.Is(m.err, filedialog.ErrCanceled):
					case m.err != nil:
						st.AppendLog("file dialog: "+m.err.Error(), time.Now())
					case m.path != "":
						m.target.SetText(m.path)
					}
				default:
					break drain
				}
			}
			if txt := st.LogText(); txt != shown.log {
				shown.log = txt
				ws.logEd.SetText(txt)
			}
			if st.Diff != shown.diff {
				shown.diff = st.Diff
				ws.previewEd.SetText(st.Diff)
			}

			ops.Reset()
			gtx := app.NewContext(&ops, e)
			layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return headerBar(th, gtx, &ws, &st, ctl.Running(), start, stop)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return banner(th, gtx, st.Banner)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return tabBar(th, gtx, &ws)
				}),
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					switch ws.tab.Value {
					case "log":
						return textPage(th, gtx, "Log", &ws.logEd)
					case "preview":
						title := "Last change"
						if st.Diff == "" {
							title = "Last change (none)"
						}
						return textPage(th, gtx, title, &ws.previewEd,
							layout.Rigid(func(gtx layout.Context) layout.Dimensions {
								return actionButton(th, gtx, &ws.restoreBtn, "Restore backup", st.LastBackup != "", uiSurface, uiText, restore)
							}),
						)
					case "config":
						return settingsPage(th, gtx, &ws, ctl.Running(),
							func() { browse(&ws.sourceEd, "Candidate list", filedialog.SourceFilters) },
							func() { browse(&ws.hostsEd, "Hosts file", filedialog.HostsFilters) },
						)
					default:
						return resultsPage(th, gtx, &ws.resultsList, st.Rows)
					}
				}),
			)
			e.Frame(&ops)
		}
	}
}

func headerBar(th *material.Theme, gtx layout.Context, ws *widgets, st *session.State, running bool, onStart, onStop func()) layout.Dimensions {
	return layout.UniformInset(uiPad).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return panelCard.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			title := material.H6(th, "hostspin")
			title.Color = uiText
			return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
				layout.Rigid(title.Layout),
				layout.Rigid(spacer(uiGap)),
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					return caption(th, gtx, st.Summary(), uiMuted)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return actionButton(th, gtx, &ws.startBtn, "Probe & update hosts", !st.Busy, uiPrimary, uiWhite, onStart)
				}),
				layout.Rigid(spacer(uiGap)),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return actionButton(th, gtx, &ws.stopBtn, "Stop", running, uiDanger, uiWhite, onStop)
				}),
			)
		})
	})
}

// banner replaces the modal dialog shown when the hosts file could not be
// written.
func banner(th *material.Theme, gtx layout.Context, msg string) layout.Dimensions {
	if msg == "" {
		return layout.Dimensions{}
	}
	return layout.Inset{Left: uiPad, Right: uiPad}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return bannerCard.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			l := material.Body2(th, msg)
			l.Color = uiDanger
			return l.Layout(gtx)
		})
	})
}

func tabBar(th *material.Theme, gtx layout.Context, ws *widgets) layout.Dimensions {
	return layout.UniformInset(uiPad).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return tabButton(th, gtx, &ws.tabResultsBtn, &ws.tab, "results", "Results")
			}),
			layout.Rigid(spacer(unit.Dp(12))),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return tabButton(th, gtx, &ws.tabLogBtn, &ws.tab, "log", "Log")
			}),
			layout.Rigid(spacer(unit.Dp(12))),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return tabButton(th, gtx, &ws.tabPreviewBtn, &ws.tab, "preview", "Preview")
			}),
			layout.Rigid(spacer(unit.Dp(12))),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return tabButton(th, gtx, &ws.tabConfigBtn, &ws.tab, "config", "Settings")
			}),
		)
	})
}

// pathField is a labeled editor followed by a browse button where the
// platform has a file dialog.
func pathField(th *material.Theme, gtx layout.Context, label, hint string, ed *widget.Editor, btn *widget.Clickable, onBrowse func()) layout.Dimensions {
	if !filedialog.Supported {
		return labeledEditor(th, gtx, label, hint, ed)
	}
	return layout.Flex{Axis: layout.Horizontal, Alignment: layout.End}.Layout(gtx,
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions { return labeledEditor(th, gtx, label, hint, ed) }),
		layout.Rigid(spacer(uiGap)),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return actionButton(th, gtx, btn, "Browse", true, uiSurface, uiText, onBrowse)
		}),
	)
}

func settingsPage(th *material.Theme, gtx layout.Context, ws *widgets, running bool, onPickSource, onPickHosts func()) layout.Dimensions {
	note := "Changes apply the next time the scheduler starts."
	if running {
		note = "The scheduler is running. Stop it, then probe again to apply changes."
	}
	return layout.UniformInset(uiPad).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return ws.settingsList.Layout(gtx, 1, func(gtx layout.Context, _ int) layout.Dimensions {
			return panelCard.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
					layout.Rigid(func(gtx layout.Context) layout.Dimensions { return sectionTitle(th, gtx, "Cycle") }),
					layout.Rigid(spacer(uiGap)),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return pathField(th, gtx, "Candidate list", "URL or local path", &ws.sourceEd, &ws.pickSource, onPickSource)
					}),
					layout.Rigid(spacer(uiGap)),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return pathField(th, gtx, "Hosts file", "path of the hosts file", &ws.hostsEd, &ws.pickHosts, onPickHosts)
					}),
					layout.Rigid(spacer(uiGap)),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
							layout.Rigid(material.CheckBox(th, &ws.hostname, "Match whole hostnames").Layout),
							layout.Rigid(spacer(uiGap)),
							layout.Rigid(material.CheckBox(th, &ws.backup, "Keep backups").Layout),
							layout.Rigid(spacer(uiGap)),
							layout.Rigid(material.CheckBox(th, &ws.dryRun, "Dry run").Layout),
						)
					}),
					layout.Rigid(spacer(unit.Dp(6))),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions { return caption(th, gtx, note, uiMuted) }),
				)
			})
		})
	})
}

func resultsPage(th *material.Theme, gtx layout.Context, list *layout.List, rows []session.Row) layout.Dimensions {
	return layout.UniformInset(uiPad).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return panelCard.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			if len(rows) == 0 {
				return caption(th, gtx, "No results yet.", uiMuted)
			}
			return list.Layout(gtx, len(rows), func(gtx layout.Context, i int) layout.Dimensions {
				return resultRow(th, gtx, rows[i])
			})
		})
	})
}

func resultRow(th *material.Theme, gtx layout.Context, r session.Row) layout.Dimensions {
	bg := uiSurface
	detail := fmt.Sprintf("%dms, %d tried", r.Latency, r.Tried)
	if r.Message != "" {
		bg = uiErrBg
		detail = fmt.Sprintf("%s, %d tried", r.Message, r.Tried)
	}
	return layout.Inset{Bottom: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return fieldCard.Fill(bg).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
				layout.Flexed(0.5, func(gtx layout.Context) layout.Dimensions {
					l := material.Body1(th, r.Domain)
					l.Color = uiText
					return l.Layout(gtx)
				}),
				layout.Flexed(0.25, func(gtx layout.Context) layout.Dimensions {
					l := material.Body1(th, r.IP)
					l.Color = uiText
					return l.Layout(gtx)
				}),
				layout.Flexed(0.25, func(gtx layout.Context) layout.Dimensions {
					c := uiMuted
					if r.Message != "" {
						c = uiDanger
					}
					return caption(th, gtx, detail, c)
				}),
			)
		})
	})
}
