// Copyright 2025 nacionrock. All rights reserved.
// Use of this source code is governed by an MIT-style license
// that can be found in the LICENSE file.

/*
Package album-votes is a small web page for voting on favourite album covers. The album table (artist, album,
cover URL and vote count) is kept in a Google Sheets worksheet, a CSV file, a SQL database or Redis and every
vote reloads, increments and rewrites the whole table.

album-votes supports the following commands:

  - serve, to run the voting page, the JSON API and the live leaderboard websocket
  - get, to download the album table as a CSV file
  - put, to replace the album table with the contents of a CSV file
  - vote, to add a vote for an album from the command line
  - results, to list the albums with the most votes
  - version, to display the current version
*/
package albumvotes
