package messages

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"diaspora-setup/internal/config"
)

// ID identifies one entry of the message catalog.
type ID int

const (
	None ID = iota
	NotInteractive
	NoRoot
	LookWiki
	JoinIRC
	RerunVerbose
	PressEnter
	RVMNotFound
	RVMContinue
	RubyVersionMismatch
	RubyVersionFatal
	GemsetNotFound
	GemsetContinue
	JSRuntimeNotFound
	JSRuntimeFatal
	BundlerTryInstall
	BundlerFatal
	GitClone
	GitNonexistentFolder
	GitNotARepo
	GitCreateConfirm
	DBCheck
	DBCheckDone
	DBMessage
	DBCreate
	DBCreatePrompt
	ConfigMessage
	Welcome
	Bye

	numIDs // sentinel, keep last
)

// bannerWidth is the width welcome titles are centered in.
const bannerWidth = 70

const rule = "#####################################################################"

// templates render each message from the settings. Using functions instead of format strings
// keeps every interpolation checked by the compiler.
var templates = map[ID]func(s *config.Settings) string{
	NotInteractive: func(*config.Settings) string {
		return "This script must be run interactively, it requires user input!"
	},
	NoRoot: func(*config.Settings) string {
		return "Don't run this script as root!"
	},
	LookWiki: func(s *config.Settings) string {
		return "have a look at our wiki: " + s.WikiURL
	},
	JoinIRC: func(s *config.Settings) string {
		return "or join us on IRC: " + s.IRCURL
	},
	RerunVerbose: func(*config.Settings) string {
		return "run this script again with '--debug' or '--verbose' to see more details"
	},
	PressEnter: func(*config.Settings) string {
		return "Press [Enter] to continue..."
	},
	RVMNotFound: func(*config.Settings) string {
		return `RVM was not found on your system (or it isn't working properly).
It is higly recommended to use it, since it allows you to easily
install, update, manage and work with multiple ruby environments.

For more details check out https://rvm.io//`
	},
	RVMContinue: func(*config.Settings) string {
		return "Press [Enter] to continue without RVM or abort this script and install it..."
	},
	RubyVersionMismatch: func(s *config.Settings) string {
		return fmt.Sprintf(`Unable to change ruby version to %s using RVM.
Please install it with:

    `+"`rvm install %s`", s.RubyVersion, s.RubyVersion)
	},
	RubyVersionFatal: func(*config.Settings) string {
		return "Make sure to install the right ruby version, before continuing with this script!"
	},
	GemsetNotFound: func(s *config.Settings) string {
		return fmt.Sprintf(`Unable to use or create the gemset '%s' for ruby %s.
The gems will be installed into the default gemset instead.`, s.Gemset, s.RubyVersion)
	},
	GemsetContinue: func(*config.Settings) string {
		return "Press [Enter] to continue without the gemset or abort this script..."
	},
	JSRuntimeNotFound: func(*config.Settings) string {
		return `This script was unable to find a JavaScript runtime compatible to ExecJS on
your system. We recommend you install either Node.js or TheRubyRacer, since
those have been proven to work.

    Node.js      -- http://nodejs.org/
    TheRubyRacer -- https://github.com/cowboyd/therubyracer

For more information on ExecJS, visit
-- https://github.com/sstephenson/execjs`
	},
	JSRuntimeFatal: func(*config.Settings) string {
		return "Can't continue without a JS runtime!"
	},
	BundlerTryInstall: func(*config.Settings) string {
		return "trying to install bundler..."
	},
	BundlerFatal: func(*config.Settings) string {
		return "'bundler' gem was not found and could not be installed!"
	},
	GitClone: func(s *config.Settings) string {
		return fmt.Sprintf(`Where would you like to put the git clone, or,
where is your existing git clone? [%s]`, s.ClonePath)
	},
	GitNonexistentFolder: func(*config.Settings) string {
		return "The folder you specified does not exist."
	},
	GitNotARepo: func(*config.Settings) string {
		return "The specified folder doesn't contain a git repo"
	},
	GitCreateConfirm: func(*config.Settings) string {
		return "Press [Enter] to create it and continue..."
	},
	DBCheck: func(*config.Settings) string {
		return fmt.Sprintf(`You can now open the database config file in '%s'
with your favorite editor and change the values to your needs.`, config.DatabaseConfig)
	},
	DBCheckDone: func(*config.Settings) string {
		return "When you're done, come back here and press [Enter] to continue..."
	},
	DBMessage: func(*config.Settings) string {
		return `Please also make sure the database server is started and the credentials you
specified in the config file are working.
This script will try to populate the database in a later step.`
	},
	DBCreate: func(*config.Settings) string {
		return `It's time to populate the database with the table schema.
Type [N/n]+[Enter] to skip over any DB operations, or
simply press [Enter] to proceed with populating the DB.`
	},
	DBCreatePrompt: func(*config.Settings) string {
		return "type something and/or just press [Enter] to continue..."
	},
	ConfigMessage: func(*config.Settings) string {
		return fmt.Sprintf(`You're encouraged to look at the config file, that was just created,
in '%s', later. For development you won't have to change
anything for now. Still, it might be interesting ;)`, config.ApplicationConfig)
	},
	Welcome: func(s *config.Settings) string {
		return strings.Join([]string{
			rule,
			"",
			center("DIASPORA* INSTALL SCRIPT"),
			"",
			center("----"),
			"",
			" This script will guide you through the basic steps",
			" to get a DEVELOPMENT setup of diaspora* up and running",
			"",
			" For a PRODUCTION installation, please do *not* use this script!",
			" Follow the guide in our wiki, instead:",
			"",
			"    -- " + s.WikiURL + "Installation_guides",
			"",
			rule,
		}, "\n")
	},
	Bye: func(s *config.Settings) string {
		return fmt.Sprintf(`%s

It worked! :)

Now, you should have a look at

  - %s      and
  - %s

and change them to your liking. Then you should be able to
start Diaspora* in development mode with:

    `+"`rails s`"+`


For further information read the wiki at %s
or join us on IRC %s`, rule, config.DatabaseConfig, config.ApplicationConfig, s.WikiURL, s.IRCURL)
	},
}

// center pads text so it sits in the middle of the banner, without trailing blanks.
func center(text string) string {
	return strings.TrimRight(lipgloss.PlaceHorizontal(bannerWidth, lipgloss.Center, text), " ")
}

// Catalog renders catalog messages for one set of settings.
type Catalog struct {
	settings *config.Settings
}

// NewCatalog binds the catalog to settings. Messages are rendered on lookup, so later changes
// to the settings (e.g. a fetched ruby version) are reflected.
func NewCatalog(s *config.Settings) *Catalog {
	return &Catalog{settings: s}
}

// Get returns the rendered message, or "" for None and unknown IDs.
func (c *Catalog) Get(id ID) string {
	tmpl, ok := templates[id]
	if !ok {
		return ""
	}
	return tmpl(c.settings)
}
