/*
Package hound offers an API to keep a long-running gateway process alive. A
watchdog periodically probes the gateway's health through its own CLI,
tracks consecutive failures, emits de-duplicated alerts to a Rocket.Chat
channel (or the local log), and once failures cross a threshold triggers a
gateway restart, subject to a cooldown that prevents restart storms.

Why a watchdog

A gateway that silently wedges is worse than one that crashes: nothing
restarts it and nobody hears about it. Supervision at the process level
(systemd, runit) only notices exits; it cannot tell that a process is up
but no longer answering. The watchdog closes that gap by asking the gateway
itself, through the same health command an operator would run, and by
escalating the way an operator would: an early warning on the first failed
check, one escalation when the failure threshold is crossed, a restart, and
a confirmation when health returns.

Use NewSpec (or New, which assembles everything from a Config) to describe
the watchdog, Start to arm it, and Terminate on the returned handle to shut
it down. Every Start owns its timer and its state, so independent watchdog
instances can coexist in one process.
*/
package hound
