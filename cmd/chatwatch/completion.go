package main

import (
	"fmt"
	"io"
)

func completionMain(args []string, out io.Writer) error {
	shell := "bash"
	if len(args) > 0 && args[0] != "" {
		shell = args[0]
	}
	switch shell {
	case "bash":
		fmt.Fprint(out, bashCompletion)
	case "zsh":
		fmt.Fprint(out, zshCompletion)
	default:
		return fmt.Errorf("unsupported shell: %s (use bash or zsh)", shell)
	}
	return nil
}

const bashCompletion = `
_chatwatch_completions()
{
    local cur prev
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "tail ping config completion --config --source --title --file --inline --c" -- "$cur") )
        return 0
    fi

    case "$prev" in
        --source|-s)
            COMPREPLY=( $(compgen -W "nostr redis nats file stdin" -- "$cur") )
            return 0
            ;;
        --file|--config)
            COMPREPLY=( $(compgen -f -- "$cur") )
            return 0
            ;;
    esac

    case "${COMP_WORDS[1]}" in
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            ;;
        tail)
            COMPREPLY=( $(compgen -W "--config --source --title --file --width --c" -- "$cur") )
            ;;
        ping)
            COMPREPLY=( $(compgen -W "--config --source --file --timeout --c" -- "$cur") )
            ;;
        config)
            COMPREPLY=( $(compgen -W "--config --source --title --file --write --c" -- "$cur") )
            ;;
        *)
            COMPREPLY=( $(compgen -W "--config --source --title --file --inline --c" -- "$cur") )
            ;;
    esac
}
complete -F _chatwatch_completions chatwatch
`

const zshCompletion = `
#compdef chatwatch
_chatwatch() {
    local -a subcmds
    subcmds=('tail:print messages as plain rows' 'ping:check that the source can be opened' 'config:print or save the effective config' 'completion:print shell completions')
    if (( CURRENT == 2 )); then
        _describe 'command' subcmds
        _arguments '--config[config file]:file:_files' '--source[message source]:source:(nostr redis nats file stdin)' '--title[list heading]:title:' '--file[JSON lines file]:file:_files' '--inline[render without the alternate screen]'
        return
    fi
    case "$words[2]" in
        completion)
            _values 'shell' bash zsh
            ;;
        tail)
            _arguments '--config[config file]:file:_files' '--source[message source]:source:(nostr redis nats file stdin)' '--title[list heading]:title:' '--file[JSON lines file]:file:_files' '--width[row width]:width:'
            ;;
        ping)
            _arguments '--config[config file]:file:_files' '--source[message source]:source:(nostr redis nats file stdin)' '--file[JSON lines file]:file:_files' '--timeout[connect timeout]:duration:'
            ;;
        config)
            _arguments '--config[config file]:file:_files' '--source[message source]:source:(nostr redis nats file stdin)' '--write[save the effective config]'
            ;;
    esac
}
compdef _chatwatch chatwatch
`
