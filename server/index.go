package server

import "net/http"

// indexHandler serves a minimal self-contained dashboard page that polls
// the JSON endpoints and follows the progress websocket.
func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexPage))
}

const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Music Archive Dashboard</title>
<style>
  body { font-family: sans-serif; margin: 2rem; background: #111; color: #ddd; }
  h1 { font-size: 1.3rem; }
  table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
  th, td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #333; }
  .stat { display: inline-block; margin-right: 1.5rem; }
  .stat b { font-size: 1.4rem; display: block; }
  #progress { margin-top: 1rem; color: #8bc34a; }
</style>
</head>
<body>
<h1>Music Archive Dashboard</h1>
<div id="stats"></div>
<div id="progress">no active scan</div>
<table>
  <thead><tr><th>Title</th><th>Artist</th><th>Album</th><th>Year</th><th>Side</th><th>Status</th></tr></thead>
  <tbody id="tracks"></tbody>
</table>
<script>
async function refresh() {
  const stats = await (await fetch('/api/stats')).json();
  let html = '<span class="stat"><b>' + stats.total + '</b>total</span>';
  for (const [k, v] of Object.entries(stats.by_status || {})) {
    html += '<span class="stat"><b>' + v + '</b>' + k + '</span>';
  }
  document.getElementById('stats').innerHTML = html;

  const data = await (await fetch('/api/tracks?limit=50')).json();
  document.getElementById('tracks').innerHTML = (data.tracks || []).map(t =>
    '<tr><td>' + t.title + '</td><td>' + t.artist + '</td><td>' + t.album +
    '</td><td>' + t.year + '</td><td>' + t.side + '</td><td>' + t.status + '</td></tr>'
  ).join('');
}
refresh();
setInterval(refresh, 10000);

const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws/progress');
ws.onmessage = ev => {
  const p = JSON.parse(ev.data);
  document.getElementById('progress').textContent =
    'scan ' + p.state + ': ' + p.processed + ' items, batch ' + p.batchNumber;
};
</script>
</body>
</html>`
