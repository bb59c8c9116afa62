package commands

const (
	_etc = "/usr/local/etc/album-votes"
	_var = "/usr/local/var/album-votes"

	DEFAULT_WORKDIR     = _var
	DEFAULT_FILE        = _var + "/album-votes.csv"
	DEFAULT_CREDENTIALS = _etc + "/.google/credentials.json"
	DEFAULT_BIND        = "0.0.0.0:8080"
)
