package constant

// AsciiArtLogo is rendered on the root command help screen.
const AsciiArtLogo = `
  _         _
 | | ____ _| |__   ___  __ _  __ _ _ __ ___   ___
 | |/ / _` + "`" + ` | '_ \ / _ \/ _` + "`" + ` |/ _` + "`" + ` | '_ ` + "`" + ` _ \ / _ \
 |   < (_| | |_) |  __/ (_| | (_| | | | | | |  __/
 |_|\_\__,_|_.__/ \___|\__, |\__,_|_| |_| |_|\___|
                       |___/`
