package server

// dashboardHTML is the embedded single-page dashboard. It pulls the summary
// and aggregate views from the JSON API and keeps the event table live over
// the rebroadcast stream.
const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Touch Station Dashboard</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, monospace;
    background: #0d1117; color: #c9d1d9; padding: 20px;
  }
  h1 { color: #58a6ff; margin-bottom: 4px; font-size: 1.5em; }
  .subtitle { color: #8b949e; margin-bottom: 20px; font-size: 0.9em; }
  .banner {
    display: none; margin-bottom: 16px; padding: 10px 16px;
    background: #3d1d20; border: 1px solid #f85149; border-radius: 6px;
    color: #f85149;
  }
  .status-bar {
    display: flex; gap: 20px; margin-bottom: 20px; padding: 12px 16px;
    background: #161b22; border: 1px solid #30363d; border-radius: 6px;
  }
  .status-item { display: flex; flex-direction: column; }
  .status-label { font-size: 0.75em; color: #8b949e; text-transform: uppercase; }
  .status-value { font-size: 1.1em; font-weight: 600; }
  .status-value.connected { color: #3fb950; }
  .status-value.disconnected { color: #f85149; }
  .stats {
    display: grid; grid-template-columns: repeat(auto-fit, minmax(150px, 1fr));
    gap: 12px; margin-bottom: 20px;
  }
  .stat-card {
    background: #161b22; border: 1px solid #30363d; border-radius: 6px;
    padding: 16px; text-align: center;
  }
  .stat-number { font-size: 2em; font-weight: 700; color: #58a6ff; }
  .stat-label { font-size: 0.8em; color: #8b949e; margin-top: 4px; }
  .panels {
    display: grid; grid-template-columns: repeat(auto-fit, minmax(260px, 1fr));
    gap: 12px; margin-bottom: 20px;
  }
  .panel {
    background: #161b22; border: 1px solid #30363d; border-radius: 6px;
    padding: 12px 16px;
  }
  .panel h2 { font-size: 0.95em; color: #58a6ff; margin-bottom: 8px; }
  table { width: 100%; border-collapse: collapse; font-size: 0.85em; }
  th { text-align: left; color: #8b949e; padding: 4px 8px; border-bottom: 1px solid #30363d; }
  td { padding: 4px 8px; border-bottom: 1px solid #21262d; }
  tr.clickable { cursor: pointer; }
  tr.clickable:hover { background: #1c2128; }
  .daily { display: none; margin-top: 8px; padding: 8px; background: #1c2128; border-radius: 6px; }
</style>
</head>
<body>
<h1>Touch Station Dashboard</h1>
<div class="subtitle">Live touch-event telemetry</div>

<div class="banner" id="errorBanner"></div>

<div class="status-bar">
  <div class="status-item">
    <span class="status-label">Feed</span>
    <span class="status-value disconnected" id="connState">disconnected</span>
  </div>
  <div class="status-item">
    <span class="status-label">Snapshot</span>
    <span class="status-value" id="loadState">idle</span>
  </div>
</div>

<div class="stats">
  <div class="stat-card"><div class="stat-number" id="totalEvents">0</div><div class="stat-label">Total Events</div></div>
  <div class="stat-card"><div class="stat-number" id="activeDevices">0</div><div class="stat-label">Active Stations</div></div>
  <div class="stat-card"><div class="stat-number" id="totalStations">0</div><div class="stat-label">Total Stations</div></div>
</div>

<div class="panels">
  <div class="panel"><h2>Events per Day</h2>
    <table><thead><tr><th>Date</th><th>Count</th></tr></thead><tbody id="timeseries"></tbody></table>
  </div>
  <div class="panel"><h2>Touch Detected</h2>
    <table><thead><tr><th>Value</th><th>Count</th></tr></thead><tbody id="categories"></tbody></table>
  </div>
  <div class="panel"><h2>Monthly Active Stations</h2>
    <table><thead><tr><th>Month</th><th>Stations</th></tr></thead><tbody id="monthly"></tbody></table>
  </div>
</div>

<div class="panel"><h2>Recent Events</h2>
  <div class="daily" id="daily"></div>
  <table><thead><tr><th>Station</th><th>Date</th><th>Time</th><th>Touch</th></tr></thead><tbody id="events"></tbody></table>
</div>

<script>
async function getJSON(path) {
  const res = await fetch(path);
  if (!res.ok) throw new Error(path + ': ' + res.status);
  return res.json();
}

function fillCounts(id, rows, key, value) {
  const body = document.getElementById(id);
  body.innerHTML = '';
  for (const row of rows || []) {
    const tr = document.createElement('tr');
    tr.innerHTML = '<td>' + row[key] + '</td><td>' + row[value] + '</td>';
    body.appendChild(tr);
  }
}

function eventRow(e) {
  const tr = document.createElement('tr');
  tr.className = 'clickable';
  tr.innerHTML = '<td>' + e.device_id + '</td><td>' + e.date + '</td><td>' + e.time +
    '</td><td>' + e.touch_detected + '</td>';
  tr.onclick = () => showDaily(e.device_id, e.createdAt.slice(0, 10));
  return tr;
}

async function showDaily(device, date) {
  const act = await getJSON('/api/devices/' + encodeURIComponent(device) + '/daily?date=' + date);
  const el = document.getElementById('daily');
  el.style.display = 'block';
  el.textContent = device + ' on ' + date + ': ' + act.touch_count +
    ' touches, first ' + act.first_touch + ', last ' + act.last_touch;
}

async function refresh() {
  const summary = await getJSON('/api/summary');
  document.getElementById('totalEvents').textContent = summary.total_events;
  document.getElementById('activeDevices').textContent = summary.active_devices;
  document.getElementById('totalStations').textContent = summary.total_stations;

  const conn = document.getElementById('connState');
  conn.textContent = summary.connected ? 'connected' : 'disconnected';
  conn.className = 'status-value ' + (summary.connected ? 'connected' : 'disconnected');
  document.getElementById('loadState').textContent = summary.loading ? 'loading' : 'ready';

  const banner = document.getElementById('errorBanner');
  banner.style.display = summary.last_error ? 'block' : 'none';
  banner.textContent = summary.last_error || '';

  fillCounts('timeseries', await getJSON('/api/timeseries'), 'date', 'count');
  fillCounts('categories', await getJSON('/api/categories'), 'category', 'count');
  fillCounts('monthly', await getJSON('/api/monthly-active'), 'month', 'devices');

  const body = document.getElementById('events');
  body.innerHTML = '';
  for (const e of await getJSON('/api/events?limit=50')) {
    body.appendChild(eventRow(e));
  }
}

refresh();
setInterval(refresh, 10000);

const stream = new EventSource('/api/stream?stream=events');
stream.addEventListener('new-data', (msg) => {
  const e = JSON.parse(msg.data);
  document.getElementById('events').prepend(eventRow(e));
  refresh();
});
</script>
</body>
</html>
`
