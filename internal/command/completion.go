package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/staranto/imgoptim/internal/meta"
	"github.com/urfave/cli/v3"
)

const bashCompletionScript = `# bash completion for imgoptim
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_imgoptim_tasks()
{
    local f
    for f in imgoptim.yaml imgoptim.yml; do
        if [[ -f $f ]]; then
            sed -n '/^tasks:/,/^[^ ]/s/^  \([A-Za-z0-9_.-]*\):.*/\1/p' "$f"
            return
        fi
    done
}

_imgoptim()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "cache completion optimize run --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--color -c --filter -f --output -o --sort -s --titles -t --root -r --tldr"

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json yaml" -- "$cur") )
        return 0
    fi
    if [[ "$prev" == "--root" || "$prev" == "-r" || "$prev" == "--cache" ]]; then
        COMPREPLY=( $(compgen -o dirnames -- "$cur") )
        return 0
    fi
    if [[ "$prev" == "--binary" || "$prev" == "-b" ]]; then
        COMPREPLY=( $(compgen -f -- "$cur") )
        return 0
    fi

    case "$cmd" in
        run)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=( $(compgen -W "$common --binary -b" -- "$cur") )
            else
                COMPREPLY=( $(compgen -W "$(_imgoptim_tasks)" -- "$cur") )
            fi
            return 0
            ;;
        optimize)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=( $(compgen -W "$common --binary -b --cache --no-cache --image-alpha --jpeg-mini --quit --no-quit" -- "$cur") )
            else
                COMPREPLY=( $(compgen -f -- "$cur") )
            fi
            return 0
            ;;
        cache)
            if [[ ${COMP_CWORD} -eq 2 ]]; then
                COMPREPLY=( $(compgen -W "purge stats" -- "$cur") )
                return 0
            fi
            case "${COMP_WORDS[2]}" in
                purge) COMPREPLY=( $(compgen -W "--cache --task --hours --root -r --tldr" -- "$cur") ) ;;
                stats) COMPREPLY=( $(compgen -W "--cache --task --output -o --root -r --tldr" -- "$cur") ) ;;
            esac
            return 0
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
    esac
    return 0
}

complete -F _imgoptim imgoptim
`

const zshCompletionScript = `#compdef imgoptim

_imgoptim() {
  local -a cmds
  cmds=(
    'cache:inspect and maintain the checksum cache'
    'optimize:optimize the given files and directories'
    'run:run the tasks of the task file'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-o --output)'{-o,--output}'[output format]:format:(text json yaml)'
  '(-r --root)'{-r,--root}'[project root]:directory:_directories'
  '(-s --sort)'{-s,--sort}'[sort columns]:columns'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--tldr[show tldr page]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'imgoptim commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    run)
      _arguments -C \
        $common \
        '(-b --binary)'{-b,--binary}'[optimizer binary]:binary:_files' \
        '*:task'
      ;;
    optimize)
      _arguments -C \
        $common \
        '(-b --binary)'{-b,--binary}'[optimizer binary]:binary:_files' \
        '--cache[cache location]:directory:_directories' \
        '--no-cache[ignore any configured cache]' \
        '--image-alpha[run ImageAlpha]' \
        '--jpeg-mini[run JPEGmini]' \
        '--quit[quit the applications when done]' \
        '*:path:_files'
      ;;
    cache)
      _arguments -C \
        '1: :((purge stats))' \
        '--cache[cache location]:directory:_directories' \
        '--task[task whose cache to use]:task' \
        '--hours[age in hours]:hours' \
        '(-o --output)'{-o,--output}'[output format]:format:(text json yaml)'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _imgoptim imgoptim
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	switch shell {
	case "bash":
		fmt.Fprint(stdout, bashCompletionScript)
	case "zsh":
		fmt.Fprint(stdout, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(stdout, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(stdout, bashCompletionScript)
		} else {
			fmt.Fprintln(stderr, "usage: imgoptim completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "imgoptim completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
