// Command lircctl talks to a running lircd: it lists remotes and their keys,
// sends key presses and reports the daemon version.
//
// Settings come from ~/.config/lircctl/config.toml when present; flags
// override the file.
package main
