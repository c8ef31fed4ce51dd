package dash

const indexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1"/>
  <title>Place Bot</title>
  <style>
    :root { --bg:#f8fafc; --card:#fff; --muted:#6b7280; --chip:#e5e7eb; }
    body{margin:0;background:var(--bg);font:14px/1.4 ui-sans-serif,system-ui,-apple-system,Segoe UI,Roboto,Ubuntu; color:#111827;}
    .wrap{max-width:1080px;margin:24px auto;padding:0 16px;}
    .hdr{display:flex;align-items:flex-end;justify-content:space-between;margin-bottom:12px;}
    .state{font-size:12px;padding:2px 8px;border-radius:999px;background:#d1fae5;color:#065f46;}
    .state.stopped{background:#fee2e2;color:#991b1b;}
    table{width:100%;border-collapse:collapse;background:var(--card);border-radius:16px;overflow:hidden;box-shadow:0 10px 30px rgba(0,0,0,.06);}
    thead{background:#f3f4f6;} th,td{padding:10px 12px;text-align:left;} tbody tr{border-top:1px solid #f3f4f6;}
    .chip{display:inline-block;font-size:12px;padding:2px 8px;background:var(--chip);border-radius:999px;color:#374151;}
    .tag{padding:2px 8px;border-radius:8px;font-size:12px;}
    .tag.ok{background:#dcfce7;color:#166534;} .tag.dim{background:#f3f4f6;color:#6b7280;}
    .sub{color:var(--muted);font-size:12px;margin:0;}
    .logs{background:#111827;color:#d1d5db;font:12px/1.5 ui-monospace,monospace;border-radius:12px;padding:12px;margin-top:16px;max-height:220px;overflow:auto;white-space:pre-wrap;}
    button{border:0;border-radius:8px;padding:6px 14px;font-size:13px;cursor:pointer;margin-left:8px;}
    .go{background:#dcfce7;color:#166534;} .halt{background:#fee2e2;color:#991b1b;}
  </style>
</head>
<body>
<div class="wrap">
  <div class="hdr">
    <div>
      <h1 style="margin:0;font-size:22px;font-weight:600">Place Bot</h1>
      <p class="sub">Win-lay derived place prices, AU thoroughbreds</p>
    </div>
    <div>
      <span id="state" class="state">...</span>
      <button class="go" onclick="post('/api/start')">start</button>
      <button class="halt" onclick="post('/api/stop')">stop</button>
    </div>
  </div>
  <p class="sub" id="summary"></p>
  <table>
    <thead>
      <tr>
        <th>Race</th><th>Runner</th><th>Field</th>
        <th>Win lay</th><th>Place back</th>
        <th>Fair</th><th>Min</th><th>Edge</th><th style="text-align:right">Updated</th>
      </tr>
    </thead>
    <tbody id="rows"></tbody>
  </table>
  <div class="logs" id="logs"></div>
</div>
<script>
  function px(x){ return (x==null||isNaN(x)||x===0) ? '—' : Number(x).toFixed(2); }
  function rowHTML(r){
    return '<tr>'
      + '<td><strong>' + (r.eventName||r.marketId) + '</strong></td>'
      + '<td>' + (r.runner||'') + '</td>'
      + '<td><span class="chip">' + (r.runnerCount||'') + '</span></td>'
      + '<td>' + px(r.winLay) + '</td>'
      + '<td>' + px(r.placeBack) + '</td>'
      + '<td>' + px(r.fairPlace) + '</td>'
      + '<td>' + px(r.minPlace) + '</td>'
      + '<td><span class="tag ' + (r.favorable?'ok':'dim') + '">' + (r.favorable ? ('+'+px(r.edge)) : '—') + '</span></td>'
      + '<td style="text-align:right;color:#6B7280;font-size:12px">' + new Date(r.ts||Date.now()).toLocaleTimeString() + '</td>'
      + '</tr>';
  }
  async function post(path){ try{ await fetch(path, {method:'POST'}); }catch(e){} tick(); }
  async function tick(){
    try{
      var res = await fetch('/api/dash', {cache:'no-store'});
      var data = await res.json();
      document.getElementById('rows').innerHTML = data.map(rowHTML).join('');
      var st = await (await fetch('/api/status', {cache:'no-store'})).json();
      var el = document.getElementById('state');
      el.textContent = st.status + (st.dryRun ? ' (dry-run)' : '');
      el.className = 'state' + (st.status==='running' ? '' : ' stopped');
      var s = st.summary;
      document.getElementById('summary').textContent =
        'bets: ' + s.successfulBets + ' ok / ' + s.failedAttempts + ' failed · staked $' + s.totalStaked.toFixed(2)
        + ' · exposure $' + s.totalExposure.toFixed(2) + ' across ' + s.racesWithExposure + ' race(s)';
      document.getElementById('logs').textContent = (st.logs||[]).join('\n');
    }catch(e){
      document.getElementById('state').textContent = 'offline';
    }
  }
  tick(); setInterval(tick, 2000);
  try {
    var ws = new WebSocket((location.protocol==='https:'?'wss://':'ws://')+location.host+'/ws');
    ws.onmessage = function(){ tick(); };
  } catch(e) {}
</script>
</body>
</html>`
